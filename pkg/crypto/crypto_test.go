package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := `{"token_id":"abc","identity":{"user_id":7}}`

	encrypted, err := Encrypt(plaintext, "ProjectHubSessionKey")
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, encrypted)

	decrypted, err := Decrypt(encrypted, "ProjectHubSessionKey")
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt("rahasia", "kunci-yang-benar")
	require.NoError(t, err)

	decrypted, err := Decrypt(encrypted, "kunci-yang-salah")
	require.NoError(t, err)
	assert.NotEqual(t, "rahasia", decrypted)
}

func TestDecryptInvalidBase64(t *testing.T) {
	_, err := Decrypt("bukan base64!!!", "ProjectHubSessionKey")
	assert.Error(t, err)
}

func TestDecryptCiphertextTooShort(t *testing.T) {
	// "YWJj" = base64 dari "abc", lebih pendek dari satu blok AES
	_, err := Decrypt("YWJj", "ProjectHubSessionKey")
	assert.EqualError(t, err, "ciphertext too short")
}

func TestFixEncryptionKey(t *testing.T) {
	assert.Len(t, FixEncryptionKey("pendek"), 32)
	assert.Len(t, FixEncryptionKey(""), 32)

	long := FixEncryptionKey("kunci yang panjangnya lebih dari tiga puluh dua byte")
	assert.Len(t, long, 32)

	exact := "12345678901234567890123456789012"
	assert.Equal(t, exact, FixEncryptionKey(exact))
}

package session

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"projecthub/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

// redis yang tidak bisa dihubungi: Del-nya gagal, tapi SignOut tetap
// harus sukses dan tetap memberi tahu subscriber.
func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
}

func TestSignOutNotifiesSubscribers(t *testing.T) {
	m := NewManager(nil, deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	var calls []*Identity
	unsub := m.Subscribe(func(ident *Identity) {
		calls = append(calls, ident)
	})
	defer unsub()

	m.SignOut(context.Background(), "token-yang-sudah-tidak-ada")

	require.Len(t, calls, 1)
	assert.Nil(t, calls[0], "sign-out harus mengirim identitas nil")
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	m := NewManager(nil, deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	calls := 0
	unsub := m.Subscribe(func(*Identity) { calls++ })

	m.SignOut(context.Background(), "abc")
	require.Equal(t, 1, calls)

	unsub()
	m.SignOut(context.Background(), "abc")
	assert.Equal(t, 1, calls, "callback tidak boleh dipanggil setelah unsubscribe")
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	m := NewManager(nil, deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	unsub := m.Subscribe(func(*Identity) {})
	unsub()
	unsub() // tidak boleh panic
}

func TestMultipleSubscribersAllNotified(t *testing.T) {
	m := NewManager(nil, deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	a, b := 0, 0
	defer m.Subscribe(func(*Identity) { a++ })()
	defer m.Subscribe(func(*Identity) { b++ })()

	m.SignOut(context.Background(), "abc")

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestCurrentWithoutSession(t *testing.T) {
	m := NewManager(nil, deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	sess, err := m.Current(context.Background(), "tidak-ada")
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrNoSession)
}

// database yang tidak bisa dihubungi sama sekali; query pertama gagal
// dengan error koneksi, bukan sql.ErrNoRows
func brokenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres",
		"host=127.0.0.1 port=1 user=nobody dbname=nothing sslmode=disable connect_timeout=1")
	require.NoError(t, err)
	return db
}

func TestSignInDatabaseDownIsNotCredentialFailure(t *testing.T) {
	m := NewManager(brokenDB(t), deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	_, err := m.SignIn(context.Background(), "budi@example.com", "rahasia1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials,
		"error koneksi database tidak boleh dilaporkan sebagai kredensial salah")
}

func TestResetPasswordDatabaseDownIsNotCredentialFailure(t *testing.T) {
	m := NewManager(brokenDB(t), deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	_, err := m.ResetPassword(context.Background(), "budi@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePasswordDatabaseDownIsNotCredentialFailure(t *testing.T) {
	m := NewManager(brokenDB(t), deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	err := m.ChangePassword(context.Background(), 1, "lama123", "baru123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdatePasswordInvalidToken(t *testing.T) {
	m := NewManager(nil, deadRedis(), []byte("secret"), "ProjectHubSessionKey")

	err := m.UpdatePassword(context.Background(), "token-palsu", "passwordbaru")
	assert.ErrorIs(t, err, ErrResetInvalid)
}

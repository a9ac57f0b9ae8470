package middleware

import (
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"projecthub/internal/config"
	"projecthub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	config.SecretKey = []byte("secret")
	os.Exit(m.Run())
}

func signToken(t *testing.T, claims jwt.MapClaims, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": 42,
		"jti":     "token-id-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", UseToken, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":  c.Locals("userID"),
			"token_id": c.Locals("tokenID"),
		})
	})
	app.Get("/stream", UseQueryToken, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})
	return app
}

func TestUseTokenNoHeader(t *testing.T) {
	app := newAuthApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUseTokenBadFormat(t *testing.T) {
	app := newAuthApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic abcdef")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUseTokenWrongSecret(t *testing.T) {
	app := newAuthApp()

	token := signToken(t, validClaims(), []byte("secret-lain"))
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUseTokenExpired(t *testing.T) {
	app := newAuthApp()

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	token := signToken(t, claims, []byte("secret"))
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUseTokenMissingTokenID(t *testing.T) {
	app := newAuthApp()

	claims := validClaims()
	delete(claims, "jti")
	token := signToken(t, claims, []byte("secret"))
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUseTokenValid(t *testing.T) {
	app := newAuthApp()

	token := signToken(t, validClaims(), []byte("secret"))
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUseQueryToken(t *testing.T) {
	app := newAuthApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/stream", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token := signToken(t, validClaims(), []byte("secret"))
	resp, err = app.Test(httptest.NewRequest("GET", "/stream?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

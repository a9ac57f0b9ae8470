package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"projecthub/pkg/crypto"
	"projecthub/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNoSession          = errors.New("no active session")
	ErrResetInvalid       = errors.New("reset token invalid or expired")
)

const (
	sessionTTL = time.Hour
	resetTTL   = 15 * time.Minute
	sessionKey = "session:"
	resetKey   = "pwreset:"
)

// Identity adalah user yang sedang terautentikasi.
type Identity struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Session adalah hasil sign-in: token JWT plus atribut identitas.
type Session struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"token_id"`
	Identity  Identity  `json:"identity"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager memegang identitas aktif: sign-in, sign-up, sign-out, dan
// notifikasi perubahan identitas ke subscriber. Record session disimpan
// terenkripsi di Redis dengan TTL sepanjang umur token.
type Manager struct {
	db     *sql.DB
	rdb    *redis.Client
	secret []byte
	encKey string

	mu      sync.Mutex
	nextSub int
	subs    map[int]func(*Identity)
}

// NewManager membuat session manager. db dan rdb di-inject supaya
// lifecyclenya eksplisit (init di cmd/api, teardown bareng aplikasi).
func NewManager(db *sql.DB, rdb *redis.Client, secret []byte, encKey string) *Manager {
	return &Manager{
		db:     db,
		rdb:    rdb,
		secret: secret,
		encKey: encKey,
		subs:   make(map[int]func(*Identity)),
	}
}

// Subscribe mendaftarkan callback perubahan identitas. Callback dipanggil
// sinkron pada setiap sign-in (identitas baru) dan sign-out (nil).
// Nilai kembaliannya adalah fungsi unsubscribe.
func (m *Manager) Subscribe(fn func(*Identity)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify(ident *Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fn := range m.subs {
		fn(ident)
	}
}

// SignIn mengautentikasi email+password. Kalau gagal, identitas tidak
// berubah dan ErrInvalidCredentials dikembalikan.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var (
		userID int
		hash   string
		name   string
	)
	err := m.db.QueryRowContext(ctx,
		"SELECT id, password, name FROM users WHERE email = $1", email).
		Scan(&userID, &hash, &name)
	if err == sql.ErrNoRows {
		logger.SecurityLogger.Warn("User not found", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		// database bermasalah, bukan kredensial salah
		logger.ErrorLogger.Error("Error querying user", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	tokenID := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"jti":     tokenID,
		"exp":     now.Add(sessionTTL).Unix(),
	})
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Token:     tokenString,
		TokenID:   tokenID,
		Identity:  Identity{UserID: userID, Email: email, Name: name},
		IssuedAt:  now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := m.store(ctx, sess); err != nil {
		return nil, err
	}

	m.notify(&sess.Identity)
	logger.AuditLogger.Info("Login success", zap.Int("user_id", userID))
	return sess, nil
}

// SignUp mendaftarkan akun baru (belum terverifikasi) tanpa membuat
// session aktif. Email ganda mengembalikan ErrEmailTaken.
func (m *Manager) SignUp(ctx context.Context, email, password, name string) (int, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	var userID int
	err = m.db.QueryRowContext(ctx,
		"INSERT INTO users (email, password, name, verified) VALUES ($1, $2, $3, FALSE) RETURNING id",
		email, string(hashed), name).Scan(&userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			logger.SecurityLogger.Warn("Duplicate email", zap.String("email", email))
			return 0, ErrEmailTaken
		}
		return 0, err
	}

	logger.AuditLogger.Info("User registered", zap.Int("user_id", userID))
	return userID, nil
}

// SignOut menghapus record session dan memberi tahu subscriber.
// Idempotent: sign-out token yang sudah tidak ada tetap sukses.
func (m *Manager) SignOut(ctx context.Context, tokenID string) {
	if err := m.rdb.Del(ctx, sessionKey+tokenID).Err(); err != nil {
		// session mungkin sudah kadaluarsa; tetap sukses
		logger.ErrorLogger.Error("Error deleting session", zap.Error(err))
	}
	m.notify(nil)
	logger.AuditLogger.Info("Logout", zap.String("token_id", tokenID))
}

// Current mengambil session aktif berdasarkan token id.
func (m *Manager) Current(ctx context.Context, tokenID string) (*Session, error) {
	encrypted, err := m.rdb.Get(ctx, sessionKey+tokenID).Result()
	if err != nil {
		return nil, ErrNoSession
	}
	plain, err := crypto.Decrypt(encrypted, m.encKey)
	if err != nil {
		return nil, ErrNoSession
	}
	var sess Session
	if err := json.Unmarshal([]byte(plain), &sess); err != nil {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (m *Manager) store(ctx context.Context, sess *Session) error {
	// token JWT tidak ikut disimpan di record
	record := *sess
	record.Token = ""
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	encrypted, err := crypto.Encrypt(string(raw), m.encKey)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, sessionKey+sess.TokenID, encrypted, sessionTTL).Err()
}

// ChangePassword mengganti password user yang sedang login; password
// lama harus cocok dulu.
func (m *Manager) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	var hash string
	err := m.db.QueryRowContext(ctx,
		"SELECT password FROM users WHERE id = $1", userID).Scan(&hash)
	if err == sql.ErrNoRows {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)); err != nil {
		logger.SecurityLogger.Warn("Change password with wrong old password", zap.Int("user_id", userID))
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx,
		"UPDATE users SET password = $1, updated_at = $2 WHERE id = $3",
		string(hashed), time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	logger.AuditLogger.Info("Password changed", zap.Int("user_id", userID))
	return nil
}

// ResetPassword menerbitkan token reset sekali pakai (TTL 15 menit)
// untuk email terdaftar. Pengiriman token ke user ada di luar sistem ini.
func (m *Manager) ResetPassword(ctx context.Context, email string) (string, error) {
	var userID int
	err := m.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := m.rdb.Set(ctx, resetKey+token, userID, resetTTL).Err(); err != nil {
		return "", err
	}
	logger.AuditLogger.Info("Password reset token issued", zap.Int("user_id", userID))
	return token, nil
}

// UpdatePassword menukar token reset dengan password baru.
func (m *Manager) UpdatePassword(ctx context.Context, token, newPassword string) error {
	userID, err := m.rdb.Get(ctx, resetKey+token).Int()
	if err != nil {
		return ErrResetInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx,
		"UPDATE users SET password = $1, updated_at = $2 WHERE id = $3",
		string(hashed), time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	m.rdb.Del(ctx, resetKey+token)
	logger.AuditLogger.Info("Password updated", zap.Int("user_id", userID))
	return nil
}

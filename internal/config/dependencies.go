package config

import (
	"context"
	"database/sql"

	"projecthub/internal/realtime"
	"projecthub/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
)

var (
	// Global dependency yang akan digunakan di seluruh aplikasi
	DB          *sql.DB
	SecretKey   = []byte("secret")
	Validate    = validator.New()
	Ctx         = context.Background()
	RedisClient *redis.Client

	// Hub menyalurkan change event ke syncer dan klien websocket;
	// Sessions memegang identitas aktif. Keduanya diinisialisasi di cmd/api.
	Hub      *realtime.Hub
	Sessions *session.Manager
)

package main

import (
	"fmt"
	"time"

	"projecthub/configs"
	v1 "projecthub/internal/api/v1"
	"projecthub/internal/config"
	"projecthub/internal/middleware"
	"projecthub/internal/realtime"
	"projecthub/internal/repository"
	"projecthub/internal/session"
	"projecthub/pkg/database"
	"projecthub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

func main() {
	// Inisialisasi logger
	logger.InitLoggers()
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	// Load config
	cfg := configs.LoadConfig()
	config.SecretKey = []byte(cfg.JWTSecret)

	// Inisialisasi database
	config.DB = database.ConnectDB(cfg)
	defer config.DB.Close()

	logger.SystemLogger.Info("Database Connected")

	// Buat tabel jika belum ada
	repository.CreateTableIfNotExists(config.DB)

	// Inisialisasi Redis
	config.RedisClient = database.ConnectRedis(cfg)
	defer config.RedisClient.Close()

	// Realtime hub untuk change feed
	config.Hub = realtime.NewHub()
	go config.Hub.Run()

	// Session manager
	config.Sessions = session.NewManager(config.DB, config.RedisClient, config.SecretKey, cfg.EncryptionKey)
	unsubscribe := config.Sessions.Subscribe(func(ident *session.Identity) {
		if ident == nil {
			logger.AuditLogger.Info("Identity cleared")
			return
		}
		logger.AuditLogger.Info("Identity changed", zap.Int("user_id", ident.UserID))
	})
	defer unsubscribe()

	app := fiber.New()

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	// Daftarkan route API v1
	v1.RegisterRoutes(app)

	logger.SystemLogger.Info("Application ready", zap.Int("port", cfg.AppPort))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.AppPort)); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}

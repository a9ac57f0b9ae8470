package handlers

import (
	"projecthub/internal/config"
	"projecthub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// WebSocket change feed

// UpgradeRequired menolak request non-websocket di route /ws
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		// tabel yang bisa di-subscribe hanya projects dan tasks
		table := c.Params("table")
		if table != "projects" && table != "tasks" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Unknown table",
				"success": false,
				"status":  400,
			})
		}
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// StreamChanges membuka satu subscription change event untuk user yang
// login dan mengalirkan event sebagai JSON sampai koneksi ditutup.
func StreamChanges() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID := conn.Locals("userID").(int)
		table := conn.Params("table")

		sub := config.Hub.Subscribe(table, userID)
		defer config.Hub.Unsubscribe(sub)

		logger.AuditLogger.Info("Change feed opened",
			zap.String("table", table), zap.Int("user_id", userID))

		// baca terus supaya close dari klien terdeteksi
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	})
}

package handlers

import (
	"strconv"

	"projecthub/internal/config"
	"projecthub/internal/services"
	"projecthub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// User handlers
// semua endpoint di sini hanya beroperasi pada user yang sedang login

// GetProfile mengambil profil user yang login
func GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	user, err := services.GetProfile(c.Context(), userID)
	if err != nil {
		if err == services.ErrNotFound {
			return c.Status(404).JSON(fiber.Map{
				"message": "User not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching profile", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching profile",
			"success": false,
			"status":  500,
		})
	}

	// Jika avatar NULL, set jadi string kosong
	if !user.Avatar.Valid {
		user.Avatar.String = ""
	}

	return c.JSON(fiber.Map{
		"message": "Profile found",
		"success": true,
		"status":  200,
		"data":    user,
	})
}

// UpdateProfile mengubah nama atau avatar user yang login
func UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	type UpdateProfileRequest struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update profile", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	user, err := services.UpdateProfile(c.Context(), userID, services.ProfileUpdate{
		Name:   req.Name,
		Avatar: req.Avatar,
	})
	if err != nil {
		if err == services.ErrNotFound {
			return c.Status(404).JSON(fiber.Map{
				"message": "User not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error updating profile", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating profile",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Profile updated", zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"success": true,
		"status":  200,
		"data":    user,
	})
}

// GetUserStats mengambil agregat milik user dalam satu query
func GetUserStats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	stats, err := services.GetUserStats(c.Context(), userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching user stats", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching user stats",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "User stats fetched successfully",
		"success": true,
		"status":  200,
		"data":    stats,
	})
}

// GetRecentActivity menggabungkan project dan task terakhir diubah
func GetRecentActivity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	activities, err := services.GetRecentActivity(c.Context(), userID, limit)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching recent activity", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching recent activity",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Recent activity fetched successfully",
		"success": true,
		"status":  200,
		"data":    activities,
	})
}

// DeleteAccount menghapus akun beserta semua project dan task-nya,
// lalu menutup session aktif
func DeleteAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	tokenID := c.Locals("tokenID").(string)

	if err := services.DeleteAccount(c.Context(), userID); err != nil {
		logger.ErrorLogger.Error("Error deleting account", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting account",
			"success": false,
			"status":  500,
		})
	}

	config.Sessions.SignOut(c.Context(), tokenID)

	logger.AuditLogger.Info("Account deleted", zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Account deleted successfully",
		"success": true,
		"status":  200,
	})
}

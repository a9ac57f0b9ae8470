package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"projecthub/internal/services"
	"projecthub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Avatar handling

// validateAvatar memvalidasi file avatar yang diunggah
func validateAvatar(file *multipart.FileHeader) error {
	// Validasi ukuran file maksimal 5MB
	if file.Size > 5<<20 {
		return fiber.NewError(fiber.StatusBadRequest, "File size exceeds the limit of 5MB")
	}

	// Validasi ekstensi file
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowedExts := map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	if !allowedExts[ext] {
		return fiber.NewError(fiber.StatusBadRequest, "File type not allowed")
	}

	// Validasi tipe konten
	contentType := file.Header.Get("Content-Type")
	if !strings.Contains(contentType, "image") {
		return fiber.NewError(fiber.StatusBadRequest, "File must be an image")
	}

	return nil
}

// GetAvatar mengirim file avatar yang tersimpan
func GetAvatar(c *fiber.Ctx) error {
	filename := c.Params("filename")
	filePath := path.Join("uploads", filename)
	return c.SendFile(filePath)
}

// UploadAvatar mengunggah avatar dan menyimpan path-nya di profil user
func UploadAvatar(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "No avatar file provided",
			"success": false,
			"status":  400,
		})
	}

	if err := validateAvatar(file); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// Pastikan folder uploads sudah ada
	uploadDir := "uploads"
	if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
		if err := os.Mkdir(uploadDir, os.ModePerm); err != nil {
			logger.ErrorLogger.Error("Error creating upload directory", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error creating upload directory",
				"success": false,
				"status":  500,
			})
		}
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	filename := fmt.Sprintf("avatar_%d_%d%s", userID, time.Now().UnixNano(), ext)
	savePath := path.Join(uploadDir, filename)

	if err := c.SaveFile(file, savePath); err != nil {
		logger.ErrorLogger.Error("Error saving avatar", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error saving avatar",
			"success": false,
			"status":  500,
		})
	}

	avatar := "/api/v1/profile/avatar/" + filename
	user, err := services.UpdateProfile(c.Context(), userID, services.ProfileUpdate{
		Avatar: &avatar,
	})
	if err != nil {
		logger.ErrorLogger.Error("Error updating avatar", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating avatar",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Avatar uploaded", zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Avatar uploaded successfully",
		"success": true,
		"status":  200,
		"data":    user,
	})
}

package handlers

import (
	"projecthub/internal/config"
	"projecthub/internal/session"
	"projecthub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Auth handlers

func Register(c *fiber.Ctx) error {
	// struct RegisterRequest menerima inputan dari user
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Name     string `json:"name" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// Validasi dengan validator
	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	userID, err := config.Sessions.SignUp(c.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if err == session.ErrEmailTaken {
			return c.Status(409).JSON(fiber.Map{
				"message": "Email already registered",
				"success": false,
				"status":  409,
			})
		}
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating user",
			"success": false,
			"status":  500,
		})
	}

	// Akun dibuat dengan status belum terverifikasi; belum ada session
	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully, verification pending",
		"success": true,
		"status":  201,
		"data": fiber.Map{
			"id": userID,
		},
	})
}

// Login menukar email+password dengan token JWT
func Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	sess, err := config.Sessions.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		if err == session.ErrInvalidCredentials {
			return c.Status(401).JSON(fiber.Map{
				"message": "Invalid credentials",
				"success": false,
				"status":  401,
			})
		}
		logger.ErrorLogger.Error("Error signing in", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error signing in",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Login success",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"user_id":    sess.Identity.UserID,
			"email":      sess.Identity.Email,
			"name":       sess.Identity.Name,
			"token":      sess.Token,
			"expires_at": sess.ExpiresAt,
		},
	})
}

// Logout menghapus session aktif; aman diulang
func Logout(c *fiber.Ctx) error {
	tokenID := c.Locals("tokenID").(string)
	config.Sessions.SignOut(c.Context(), tokenID)
	return c.JSON(fiber.Map{
		"message": "Logout success",
		"success": true,
		"status":  200,
	})
}

// GetSession mengembalikan session aktif untuk token yang dipakai
func GetSession(c *fiber.Ctx) error {
	tokenID := c.Locals("tokenID").(string)
	sess, err := config.Sessions.Current(c.Context(), tokenID)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{
			"message": "No active session",
			"success": false,
			"status":  401,
		})
	}
	return c.JSON(fiber.Map{
		"message": "Session found",
		"success": true,
		"status":  200,
		"data":    sess,
	})
}

// RequestPasswordReset menerbitkan token reset untuk email terdaftar.
// Pengiriman token ke pemilik akun ada di luar sistem ini, jadi token
// dikembalikan langsung di response.
func RequestPasswordReset(c *fiber.Ctx) error {
	type ResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	var req ResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	token, err := config.Sessions.ResetPassword(c.Context(), req.Email)
	if err != nil {
		if err == session.ErrInvalidCredentials {
			// email tidak terdaftar tidak dibocorkan
			logger.SecurityLogger.Warn("Password reset for unknown email", zap.String("email", req.Email))
			return c.JSON(fiber.Map{
				"message": "If the email is registered, a reset token has been issued",
				"success": true,
				"status":  200,
			})
		}
		logger.ErrorLogger.Error("Error issuing reset token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error issuing reset token",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Reset token issued",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"reset_token": token,
		},
	})
}

// ChangePassword mengganti password user yang login (password lama
// harus cocok)
func ChangePassword(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	type ChangePasswordRequest struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=6"`
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	if err := config.Sessions.ChangePassword(c.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		if err == session.ErrInvalidCredentials {
			return c.Status(401).JSON(fiber.Map{
				"message": "Invalid credentials",
				"success": false,
				"status":  401,
			})
		}
		logger.ErrorLogger.Error("Error changing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error changing password",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
		"success": true,
		"status":  200,
	})
}

// UpdatePassword menukar token reset dengan password baru
func UpdatePassword(c *fiber.Ctx) error {
	type UpdatePasswordRequest struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
	}

	var req UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	if err := config.Sessions.UpdatePassword(c.Context(), req.Token, req.Password); err != nil {
		if err == session.ErrResetInvalid {
			return c.Status(400).JSON(fiber.Map{
				"message": "Reset token invalid or expired",
				"success": false,
				"status":  400,
			})
		}
		logger.ErrorLogger.Error("Error updating password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating password",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
		"success": true,
		"status":  200,
	})
}

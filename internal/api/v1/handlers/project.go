package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"projecthub/internal/config"
	"projecthub/internal/models"
	"projecthub/internal/realtime"
	"projecthub/internal/services"
	"projecthub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Project handlers

func projectCacheKey(id string) string {
	return fmt.Sprintf("project:%s", id)
}

// CreateProject membuat project baru milik user yang login
func CreateProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	type ProjectRequest struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
		Status      string `json:"status" validate:"required,oneof=planning active completed archived"`
	}

	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create project", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.ErrorLogger.Error("Validation error in create project", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	project, err := services.CreateProject(c.Context(), userID, services.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		logger.ErrorLogger.Error("Error creating project", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating project",
			"success": false,
			"status":  500,
		})
	}

	// simpan ke cache dan siarkan change event
	if raw, err := json.Marshal(project); err == nil {
		config.RedisClient.SetEX(config.Ctx, projectCacheKey(project.ID), raw, time.Hour)
	}
	config.Hub.Publish(realtime.Event{
		Table:    "projects",
		Type:     realtime.EventInsert,
		UserID:   userID,
		RecordID: project.ID,
		Record:   project,
	})

	logger.AuditLogger.Info("Project created", zap.String("project_id", project.ID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Project created successfully",
		"success": true,
		"status":  201,
		"data":    project,
	})
}

// ListProjects mengambil project milik user, terbaru dulu,
// dengan filter search (substring nama) dan status
func ListProjects(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	projects, err := services.ListProjects(c.Context(), userID, services.ProjectFilters{
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	if err != nil {
		logger.ErrorLogger.Error("Error fetching projects", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching projects",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Projects fetched successfully",
		"success": true,
		"status":  200,
		"data":    projects,
	})
}

// GetProject mengambil satu project milik user
func GetProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	projectID := c.Params("id")

	// Coba ambil dari cache Redis dulu
	if cached, err := config.RedisClient.Get(config.Ctx, projectCacheKey(projectID)).Result(); err == nil {
		var project models.Project
		if err = json.Unmarshal([]byte(cached), &project); err == nil && project.UserID == userID {
			return c.JSON(fiber.Map{
				"message": "Project found (from cache)",
				"success": true,
				"status":  200,
				"data":    project,
			})
		}
	}

	project, err := services.GetProject(c.Context(), projectID, userID)
	if err != nil {
		if err == services.ErrNotFound {
			return c.Status(404).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching project", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching project",
			"success": false,
			"status":  500,
		})
	}

	// Simpan ke cache selama 1 jam
	if raw, err := json.Marshal(project); err == nil {
		config.RedisClient.SetEX(config.Ctx, projectCacheKey(projectID), raw, time.Hour)
	}

	return c.JSON(fiber.Map{
		"message": "Project found",
		"success": true,
		"status":  200,
		"data":    project,
	})
}

// UpdateProject mengubah sebagian field project
func UpdateProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	projectID := c.Params("id")

	// pointer (*) untuk menandakan bahwa field bisa kosong
	type UpdateProjectRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status" validate:"omitempty,oneof=planning active completed archived"`
	}

	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update project", zap.Error(err))
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

	project, err := services.UpdateProject(c.Context(), projectID, userID, services.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		if err == services.ErrNotFound {
			return c.Status(404).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error updating project", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating project",
			"success": false,
			"status":  500,
		})
	}

	// Perbarui cache dan siarkan change event
	config.RedisClient.Del(config.Ctx, projectCacheKey(projectID))
	if raw, err := json.Marshal(project); err == nil {
		config.RedisClient.SetEX(config.Ctx, projectCacheKey(projectID), raw, time.Hour)
	}
	config.Hub.Publish(realtime.Event{
		Table:    "projects",
		Type:     realtime.EventUpdate,
		UserID:   userID,
		RecordID: project.ID,
		Record:   project,
	})

	logger.AuditLogger.Info("Project updated", zap.String("project_id", projectID))
	return c.JSON(fiber.Map{
		"message": "Project updated successfully",
		"success": true,
		"status":  200,
		"data":    project,
	})
}

// DeleteProject menghapus project milik user; id yang sudah tidak ada
// tetap sukses (idempotent)
func DeleteProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	projectID := c.Params("id")

	// task yang menempel akan lepas dari project (project_id jadi NULL);
	// ambil dulu supaya perubahan itu ikut disiarkan ke change feed
	detached, err := services.ListTasksByProject(c.Context(), projectID, userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks before project delete", zap.Error(err))
		detached = nil
	}

	if err := services.DeleteProject(c.Context(), projectID, userID); err != nil {
		logger.ErrorLogger.Error("Error deleting project", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting project",
			"success": false,
			"status":  500,
		})
	}

	config.RedisClient.Del(config.Ctx, projectCacheKey(projectID))
	config.Hub.Publish(realtime.Event{
		Table:    "projects",
		Type:     realtime.EventDelete,
		UserID:   userID,
		RecordID: projectID,
	})
	for _, task := range detached {
		task.ProjectID = nil
		task.ProjectName = nil
		config.RedisClient.Del(config.Ctx, taskCacheKey(task.ID))
		config.Hub.Publish(realtime.Event{
			Table:    "tasks",
			Type:     realtime.EventUpdate,
			UserID:   userID,
			RecordID: task.ID,
			Record:   task,
		})
	}

	logger.AuditLogger.Info("Project deleted", zap.String("project_id", projectID))
	return c.JSON(fiber.Map{
		"message": "Project deleted successfully",
		"success": true,
		"status":  200,
	})
}

// GetProjectStats menghitung jumlah project per status
func GetProjectStats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	stats, err := services.GetProjectStats(c.Context(), userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching project stats", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching project stats",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Project stats fetched successfully",
		"success": true,
		"status":  200,
		"data":    stats,
	})
}

// ListProjectTasks mengambil semua task dalam satu project
func ListProjectTasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	projectID := c.Params("id")

	tasks, err := services.ListTasksByProject(c.Context(), projectID, userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching project tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching project tasks",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

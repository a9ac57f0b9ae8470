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

// Task handlers

func taskCacheKey(id string) string {
	return fmt.Sprintf("task:%s", id)
}

// CreateTask membuat task baru milik user yang login
func CreateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	type TaskRequest struct {
		ProjectID   *string    `json:"project_id"`
		Title       string     `json:"title" validate:"required"`
		Description string     `json:"description"`
		Status      string     `json:"status" validate:"required,oneof=pending in_progress completed"`
		Priority    string     `json:"priority" validate:"required,oneof=low medium high"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.ErrorLogger.Error("Validation error in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// project tujuan (kalau diisi) harus milik user yang sama
	if req.ProjectID != nil && *req.ProjectID != "" {
		if _, err := services.GetProject(c.Context(), *req.ProjectID, userID); err != nil {
			return c.Status(400).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  400,
			})
		}
	} else {
		req.ProjectID = nil
	}

	task, err := services.CreateTask(c.Context(), userID, services.TaskInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	if raw, err := json.Marshal(task); err == nil {
		config.RedisClient.SetEX(config.Ctx, taskCacheKey(task.ID), raw, time.Hour)
	}
	config.Hub.Publish(realtime.Event{
		Table:    "tasks",
		Type:     realtime.EventInsert,
		UserID:   userID,
		RecordID: task.ID,
		Record:   task,
	})

	logger.AuditLogger.Info("Task created", zap.String("task_id", task.ID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Task created successfully",
		"success": true,
		"status":  201,
		"data":    task,
	})
}

// ListTasks mengambil task milik user, terbaru dulu, dengan filter
// search (substring judul), status, project_id, dan priority.
// Nilai "all" atau kosong berarti field tidak difilter.
func ListTasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	tasks, err := services.ListTasks(c.Context(), userID, services.TaskFilters{
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		ProjectID: c.Query("project_id"),
		Priority:  c.Query("priority"),
	})
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
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

// GetTask mengambil satu task milik user
func GetTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	taskID := c.Params("id")

	// Coba ambil dari cache Redis dulu
	if cached, err := config.RedisClient.Get(config.Ctx, taskCacheKey(taskID)).Result(); err == nil {
		var task models.TaskWithProject
		if err = json.Unmarshal([]byte(cached), &task); err == nil && task.UserID == userID {
			return c.JSON(fiber.Map{
				"message": "Task found (from cache)",
				"success": true,
				"status":  200,
				"data":    task,
			})
		}
	}

	task, err := services.GetTask(c.Context(), taskID, userID)
	if err != nil {
		if err == services.ErrNotFound {
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching task",
			"success": false,
			"status":  500,
		})
	}

	if raw, err := json.Marshal(task); err == nil {
		config.RedisClient.SetEX(config.Ctx, taskCacheKey(taskID), raw, time.Hour)
	}

	return c.JSON(fiber.Map{
		"message": "Task found",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

// UpdateTask mengubah sebagian field task
func UpdateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	taskID := c.Params("id")

	type UpdateTaskRequest struct {
		ProjectID    *string    `json:"project_id"`
		Title        *string    `json:"title"`
		Description  *string    `json:"description"`
		Status       *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
		Priority     *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
		DueDate      *time.Time `json:"due_date"`
		ClearDueDate bool       `json:"clear_due_date"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
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

	if req.ProjectID != nil && *req.ProjectID != "" {
		if _, err := services.GetProject(c.Context(), *req.ProjectID, userID); err != nil {
			return c.Status(400).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  400,
			})
		}
	}

	task, err := services.UpdateTask(c.Context(), taskID, userID, services.TaskUpdate{
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		if err == services.ErrNotFound {
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error updating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}

	config.RedisClient.Del(config.Ctx, taskCacheKey(taskID))
	if raw, err := json.Marshal(task); err == nil {
		config.RedisClient.SetEX(config.Ctx, taskCacheKey(taskID), raw, time.Hour)
	}
	config.Hub.Publish(realtime.Event{
		Table:    "tasks",
		Type:     realtime.EventUpdate,
		UserID:   userID,
		RecordID: task.ID,
		Record:   task,
	})

	logger.AuditLogger.Info("Task updated", zap.String("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

// UpdateTaskStatus hanya mengganti status (toggle cepat dari list)
func UpdateTaskStatus(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	taskID := c.Params("id")

	type StatusRequest struct {
		Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
	}

	var req StatusRequest
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

	task, err := services.UpdateTaskStatus(c.Context(), taskID, userID, req.Status)
	if err != nil {
		if err == services.ErrNotFound {
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error updating task status", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task status",
			"success": false,
			"status":  500,
		})
	}

	config.RedisClient.Del(config.Ctx, taskCacheKey(taskID))
	if raw, err := json.Marshal(task); err == nil {
		config.RedisClient.SetEX(config.Ctx, taskCacheKey(taskID), raw, time.Hour)
	}
	config.Hub.Publish(realtime.Event{
		Table:    "tasks",
		Type:     realtime.EventUpdate,
		UserID:   userID,
		RecordID: task.ID,
		Record:   task,
	})

	logger.AuditLogger.Info("Task status updated",
		zap.String("task_id", taskID), zap.String("status", req.Status))
	return c.JSON(fiber.Map{
		"message": "Task status updated successfully",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

// DeleteTask menghapus task milik user; idempotent
func DeleteTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	taskID := c.Params("id")

	if err := services.DeleteTask(c.Context(), taskID, userID); err != nil {
		logger.ErrorLogger.Error("Error deleting task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting task",
			"success": false,
			"status":  500,
		})
	}

	config.RedisClient.Del(config.Ctx, taskCacheKey(taskID))
	config.Hub.Publish(realtime.Event{
		Table:    "tasks",
		Type:     realtime.EventDelete,
		UserID:   userID,
		RecordID: taskID,
	})

	logger.AuditLogger.Info("Task deleted", zap.String("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task deleted successfully",
		"success": true,
		"status":  200,
	})
}

// GetTaskStats menghitung jumlah task per status dan priority
func GetTaskStats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	stats, err := services.GetTaskStats(c.Context(), userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching task stats", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching task stats",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Task stats fetched successfully",
		"success": true,
		"status":  200,
		"data":    stats,
	})
}

// ListOverdueTasks mengambil task lewat due date yang belum selesai
func ListOverdueTasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	tasks, err := services.ListOverdueTasks(c.Context(), userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching overdue tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching overdue tasks",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Overdue tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

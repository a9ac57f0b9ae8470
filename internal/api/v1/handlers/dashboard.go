package handlers

import (
	"sync"

	"projecthub/internal/config"
	"projecthub/internal/models"
	"projecthub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Dashboard aggregation

// GetDashboard menjalankan lima query secara paralel dan baru merespons
// setelah semuanya selesai. Query yang gagal hanya dicatat di log dan
// nilainya dibiarkan nol, supaya dashboard tetap bisa dirender.
func GetDashboard(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	ctx := c.Context()

	var (
		totalProjects  int
		totalTasks     int
		completedTasks int
		recentProjects = []models.Project{}
		recentTasks    = []models.TaskWithProject{}
	)

	var wg sync.WaitGroup
	wg.Add(5)

	go func() {
		defer wg.Done()
		err := config.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM projects WHERE user_id = $1", userID).Scan(&totalProjects)
		if err != nil {
			logger.ErrorLogger.Error("Dashboard: error counting projects", zap.Error(err))
		}
	}()

	go func() {
		defer wg.Done()
		err := config.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM tasks WHERE user_id = $1", userID).Scan(&totalTasks)
		if err != nil {
			logger.ErrorLogger.Error("Dashboard: error counting tasks", zap.Error(err))
		}
	}()

	go func() {
		defer wg.Done()
		err := config.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = 'completed'", userID).
			Scan(&completedTasks)
		if err != nil {
			logger.ErrorLogger.Error("Dashboard: error counting completed tasks", zap.Error(err))
		}
	}()

	go func() {
		defer wg.Done()
		rows, err := config.DB.QueryContext(ctx,
			`SELECT id, user_id, name, description, status, created_at, updated_at
			 FROM projects WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT 5`, userID)
		if err != nil {
			logger.ErrorLogger.Error("Dashboard: error fetching recent projects", zap.Error(err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var p models.Project
			if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Status,
				&p.CreatedAt, &p.UpdatedAt); err != nil {
				logger.ErrorLogger.Error("Dashboard: error scanning recent projects", zap.Error(err))
				return
			}
			recentProjects = append(recentProjects, p)
		}
	}()

	go func() {
		defer wg.Done()
		rows, err := config.DB.QueryContext(ctx,
			`SELECT t.id, t.user_id, t.project_id, t.title, t.description, t.status,
			        t.priority, t.due_date, t.created_at, t.updated_at, p.name
			 FROM tasks t LEFT JOIN projects p ON p.id = t.project_id
			 WHERE t.user_id = $1 ORDER BY t.created_at DESC, t.id LIMIT 5`, userID)
		if err != nil {
			logger.ErrorLogger.Error("Dashboard: error fetching recent tasks", zap.Error(err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var t models.TaskWithProject
			if err := rows.Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Title, &t.Description,
				&t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
				&t.ProjectName); err != nil {
				logger.ErrorLogger.Error("Dashboard: error scanning recent tasks", zap.Error(err))
				return
			}
			recentTasks = append(recentTasks, t)
		}
	}()

	wg.Wait()

	// dua count di atas jalan terpisah tanpa snapshot isolation; kalau ada
	// task selesai di antara keduanya, selisihnya bisa negatif, jadi clamp
	pendingTasks := totalTasks - completedTasks
	if pendingTasks < 0 {
		logger.ErrorLogger.Error("Dashboard: pending count clamped",
			zap.Int("total", totalTasks), zap.Int("completed", completedTasks))
		pendingTasks = 0
	}

	return c.JSON(fiber.Map{
		"message": "Dashboard fetched successfully",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"stats": fiber.Map{
				"total_projects":  totalProjects,
				"total_tasks":     totalTasks,
				"completed_tasks": completedTasks,
				"pending_tasks":   pendingTasks,
			},
			"recent_projects": recentProjects,
			"recent_tasks":    recentTasks,
		},
	})
}

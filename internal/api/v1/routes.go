package v1

import (
	"projecthub/internal/api/v1/handlers"
	"projecthub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Auth
	api.Post("/login", handlers.Login)
	api.Post("/register", handlers.Register)
	api.Post("/password/reset", handlers.RequestPasswordReset)
	api.Post("/password/update", handlers.UpdatePassword)
	api.Put("/password", middleware.UseToken, handlers.ChangePassword)
	api.Post("/logout", middleware.UseToken, handlers.Logout)
	api.Get("/session", middleware.UseToken, handlers.GetSession)

	// Project
	projectRoutes := api.Group("/projects", middleware.UseToken)
	projectRoutes.Get("/stats", handlers.GetProjectStats)
	projectRoutes.Post("/", handlers.CreateProject)
	projectRoutes.Get("/", handlers.ListProjects)
	projectRoutes.Get("/:id", handlers.GetProject)
	projectRoutes.Get("/:id/tasks", handlers.ListProjectTasks)
	projectRoutes.Put("/:id", handlers.UpdateProject)
	projectRoutes.Delete("/:id", handlers.DeleteProject)

	// Task
	taskRoutes := api.Group("/tasks", middleware.UseToken)
	taskRoutes.Get("/stats", handlers.GetTaskStats)
	taskRoutes.Get("/overdue", handlers.ListOverdueTasks)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Patch("/:id/status", handlers.UpdateTaskStatus)
	taskRoutes.Delete("/:id", handlers.DeleteTask)

	// Dashboard
	api.Get("/dashboard", middleware.UseToken, handlers.GetDashboard)

	// Profile
	profileRoutes := api.Group("/profile", middleware.UseToken)
	profileRoutes.Get("/", handlers.GetProfile)
	profileRoutes.Put("/", handlers.UpdateProfile)
	profileRoutes.Post("/avatar", handlers.UploadAvatar)
	profileRoutes.Get("/avatar/:filename", handlers.GetAvatar)

	api.Get("/stats", middleware.UseToken, handlers.GetUserStats)
	api.Get("/activity", middleware.UseToken, handlers.GetRecentActivity)
	api.Delete("/account", middleware.UseToken, handlers.DeleteAccount)

	// WebSocket change feed (token lewat query string)
	api.Get("/ws/:table", middleware.UseQueryToken, handlers.UpgradeRequired, handlers.StreamChanges())
}

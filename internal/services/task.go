package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"projecthub/internal/config"
	"projecthub/internal/models"

	"github.com/google/uuid"
)

// TaskFilters: nilai kosong atau "all" berarti field tidak difilter.
type TaskFilters struct {
	Search    string
	Status    string
	ProjectID string
	Priority  string
}

type TaskInput struct {
	ProjectID   *string
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
}

// TaskUpdate: field nil tidak diubah. ClearDueDate mengosongkan due date.
type TaskUpdate struct {
	ProjectID    *string
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
}

type TaskStats struct {
	Total    int            `json:"total"`
	Status   map[string]int `json:"status"`
	Priority map[string]int `json:"priority"`
}

// Kolom task di-join dengan nama project-nya (ekuivalen projects(name)).
const taskColumns = `t.id, t.user_id, t.project_id, t.title, t.description, t.status,
	t.priority, t.due_date, t.created_at, t.updated_at, p.name`

const taskFrom = " FROM tasks t LEFT JOIN projects p ON p.id = t.project_id"

func scanTask(row interface{ Scan(...any) error }) (models.TaskWithProject, error) {
	var t models.TaskWithProject
	err := row.Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt, &t.ProjectName)
	return t, err
}

// ListTasks mengambil semua task milik userID, terbaru dulu,
// dengan filter yang bisa dikombinasikan.
func ListTasks(ctx context.Context, userID int, f TaskFilters) ([]models.TaskWithProject, error) {
	query := "SELECT " + taskColumns + taskFrom + " WHERE t.user_id = $1"
	args := []any{userID}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND t.title ILIKE $%d", len(args))
	}
	if f.Status != "" && f.Status != "all" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND t.status = $%d", len(args))
	}
	if f.ProjectID != "" && f.ProjectID != "all" {
		args = append(args, f.ProjectID)
		query += fmt.Sprintf(" AND t.project_id = $%d", len(args))
	}
	if f.Priority != "" && f.Priority != "all" {
		args = append(args, f.Priority)
		query += fmt.Sprintf(" AND t.priority = $%d", len(args))
	}
	query += " ORDER BY t.created_at DESC, t.id"

	return queryTasks(ctx, query, args...)
}

// ListTasksByProject mengambil semua task di satu project milik userID.
func ListTasksByProject(ctx context.Context, projectID string, userID int) ([]models.TaskWithProject, error) {
	return queryTasks(ctx,
		"SELECT "+taskColumns+taskFrom+
			" WHERE t.project_id = $1 AND t.user_id = $2 ORDER BY t.created_at DESC, t.id",
		projectID, userID)
}

// ListOverdueTasks: task lewat due date yang belum selesai, paling telat dulu.
func ListOverdueTasks(ctx context.Context, userID int) ([]models.TaskWithProject, error) {
	return queryTasks(ctx,
		"SELECT "+taskColumns+taskFrom+
			" WHERE t.user_id = $1 AND t.due_date < $2 AND t.status IN ('pending', 'in_progress')"+
			" ORDER BY t.due_date ASC",
		userID, time.Now().UTC())
}

func queryTasks(ctx context.Context, query string, args ...any) ([]models.TaskWithProject, error) {
	rows, err := config.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.TaskWithProject{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask mengambil satu task; ErrNotFound jika id/owner tidak cocok.
func GetTask(ctx context.Context, id string, userID int) (models.TaskWithProject, error) {
	t, err := scanTask(config.DB.QueryRowContext(ctx,
		"SELECT "+taskColumns+taskFrom+" WHERE t.id = $1 AND t.user_id = $2",
		id, userID))
	if err == sql.ErrNoRows {
		return models.TaskWithProject{}, ErrNotFound
	}
	return t, err
}

// CreateTask membuat task baru; created_at == updated_at saat dibuat.
func CreateTask(ctx context.Context, userID int, in TaskInput) (models.TaskWithProject, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := config.DB.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, project_id, title, description, status, priority, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		id, userID, in.ProjectID, in.Title, in.Description, in.Status, in.Priority, in.DueDate, now)
	if err != nil {
		return models.TaskWithProject{}, err
	}
	// baca ulang lewat join supaya project_name ikut terisi
	return GetTask(ctx, id, userID)
}

// UpdateTask mengubah field yang tidak nil dan menstempel updated_at.
func UpdateTask(ctx context.Context, id string, userID int, in TaskUpdate) (models.TaskWithProject, error) {
	var res sql.Result
	var err error
	if in.ClearDueDate {
		res, err = config.DB.ExecContext(ctx,
			`UPDATE tasks
			 SET project_id = COALESCE($1, project_id),
			     title = COALESCE($2, title),
			     description = COALESCE($3, description),
			     status = COALESCE($4, status),
			     priority = COALESCE($5, priority),
			     due_date = NULL,
			     updated_at = $6
			 WHERE id = $7 AND user_id = $8`,
			in.ProjectID, in.Title, in.Description, in.Status, in.Priority,
			time.Now().UTC(), id, userID)
	} else {
		res, err = config.DB.ExecContext(ctx,
			`UPDATE tasks
			 SET project_id = COALESCE($1, project_id),
			     title = COALESCE($2, title),
			     description = COALESCE($3, description),
			     status = COALESCE($4, status),
			     priority = COALESCE($5, priority),
			     due_date = COALESCE($6, due_date),
			     updated_at = $7
			 WHERE id = $8 AND user_id = $9`,
			in.ProjectID, in.Title, in.Description, in.Status, in.Priority, in.DueDate,
			time.Now().UTC(), id, userID)
	}
	if err != nil {
		return models.TaskWithProject{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.TaskWithProject{}, ErrNotFound
	}
	return GetTask(ctx, id, userID)
}

// UpdateTaskStatus hanya mengganti status task (toggle cepat dari list).
func UpdateTaskStatus(ctx context.Context, id string, userID int, status string) (models.TaskWithProject, error) {
	res, err := config.DB.ExecContext(ctx,
		"UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4",
		status, time.Now().UTC(), id, userID)
	if err != nil {
		return models.TaskWithProject{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.TaskWithProject{}, ErrNotFound
	}
	return GetTask(ctx, id, userID)
}

// DeleteTask menghapus task milik userID; idempotent.
func DeleteTask(ctx context.Context, id string, userID int) error {
	_, err := config.DB.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

// GetTaskStats menghitung jumlah task per status dan per priority.
func GetTaskStats(ctx context.Context, userID int) (TaskStats, error) {
	stats := TaskStats{
		Status: map[string]int{
			models.TaskPending:    0,
			models.TaskInProgress: 0,
			models.TaskCompleted:  0,
		},
		Priority: map[string]int{
			models.PriorityLow:    0,
			models.PriorityMedium: 0,
			models.PriorityHigh:   0,
		},
	}

	rows, err := config.DB.QueryContext(ctx,
		"SELECT status, priority, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status, priority", userID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority string
		var count int
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return stats, err
		}
		stats.Total += count
		stats.Status[status] += count
		stats.Priority[priority] += count
	}
	return stats, rows.Err()
}

package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"projecthub/internal/config"
	"projecthub/internal/models"
	"projecthub/internal/realtime"
)

// ProfileUpdate: field nil tidak diubah.
type ProfileUpdate struct {
	Name   *string
	Avatar *string
}

// UserStats adalah agregat milik satu user, pengganti RPC user_stats
// di backend lama: satu query, satu snapshot.
type UserStats struct {
	TotalProjects  int `json:"total_projects"`
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	OverdueTasks   int `json:"overdue_tasks"`
}

// Activity adalah satu entri aktivitas terakhir (project atau task).
type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "project" atau "task"
	Title     string    `json:"title"`
	Status    string    `json:"status,omitempty"`
	Project   *string   `json:"project,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

const userColumns = "id, email, name, avatar, verified, created_at, updated_at"

// GetProfile mengambil profil user yang sedang login.
func GetProfile(ctx context.Context, userID int) (models.User, error) {
	var u models.User
	err := config.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// UpdateProfile mengubah nama/avatar dan menstempel updated_at.
func UpdateProfile(ctx context.Context, userID int, in ProfileUpdate) (models.User, error) {
	var u models.User
	err := config.DB.QueryRowContext(ctx,
		`UPDATE users
		 SET name = COALESCE($1, name),
		     avatar = COALESCE($2, avatar),
		     updated_at = $3
		 WHERE id = $4
		 RETURNING `+userColumns,
		in.Name, in.Avatar, time.Now().UTC(), userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// GetUserStats menghitung agregat user dalam satu query.
func GetUserStats(ctx context.Context, userID int) (UserStats, error) {
	var s UserStats
	err := config.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM projects WHERE user_id = $1),
			(SELECT COUNT(*) FROM tasks WHERE user_id = $1),
			(SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = 'completed'),
			(SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND due_date < $2
				AND status IN ('pending', 'in_progress'))`,
		userID, time.Now().UTC()).
		Scan(&s.TotalProjects, &s.TotalTasks, &s.CompletedTasks, &s.OverdueTasks)
	return s, err
}

// DeleteAccount menghapus user beserta semua project dan task-nya dalam
// satu transaksi, pengganti RPC delete_user_account.
func DeleteAccount(ctx context.Context, userID int) error {
	tx, err := config.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE user_id = $1", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE user_id = $1", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetRecentActivity menggabungkan project dan task terakhir diubah,
// diurutkan berdasarkan updated_at menurun, maksimal limit entri.
func GetRecentActivity(ctx context.Context, userID, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}

	activities := []Activity{}

	rows, err := config.DB.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM projects
		 WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var a Activity
		a.Type = "project"
		if err := rows.Scan(&a.ID, &a.Title, &a.CreatedAt, &a.Timestamp); err != nil {
			rows.Close()
			return nil, err
		}
		activities = append(activities, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = config.DB.QueryContext(ctx,
		`SELECT t.id, t.title, t.status, t.created_at, t.updated_at, p.name
		 FROM tasks t LEFT JOIN projects p ON p.id = t.project_id
		 WHERE t.user_id = $1 ORDER BY t.updated_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var a Activity
		a.Type = "task"
		if err := rows.Scan(&a.ID, &a.Title, &a.Status, &a.CreatedAt, &a.Timestamp, &a.Project); err != nil {
			rows.Close()
			return nil, err
		}
		activities = append(activities, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

// Snapshot adalah SnapshotFunc untuk realtime syncer: memetakan nama
// tabel ke list query yang sesuai. Filter berisi field yang aktif saja.
func Snapshot(ctx context.Context, table string, userID int, filters map[string]string) ([]realtime.Record, error) {
	switch table {
	case "projects":
		projects, err := ListProjects(ctx, userID, ProjectFilters{
			Search: filters["search"],
			Status: filters["status"],
		})
		if err != nil {
			return nil, err
		}
		out := make([]realtime.Record, len(projects))
		for i, p := range projects {
			out[i] = p
		}
		return out, nil
	case "tasks":
		tasks, err := ListTasks(ctx, userID, TaskFilters{
			Search:    filters["search"],
			Status:    filters["status"],
			ProjectID: filters["project_id"],
			Priority:  filters["priority"],
		})
		if err != nil {
			return nil, err
		}
		out := make([]realtime.Record, len(tasks))
		for i, t := range tasks {
			out[i] = t
		}
		return out, nil
	default:
		return nil, ErrNotFound
	}
}

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

// ProjectFilters: nilai kosong atau "all" berarti field tidak difilter.
type ProjectFilters struct {
	Search string
	Status string
}

type ProjectInput struct {
	Name        string
	Description string
	Status      string
}

// ProjectUpdate: field nil tidak diubah.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *string
}

type ProjectStats struct {
	Total     int `json:"total"`
	Planning  int `json:"planning"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Archived  int `json:"archived"`
}

const projectColumns = "id, user_id, name, description, status, created_at, updated_at"

func scanProject(row interface{ Scan(...any) error }) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjects mengambil semua project milik userID, terbaru dulu.
func ListProjects(ctx context.Context, userID int, f ProjectFilters) ([]models.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE user_id = $1"
	args := []any{userID}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if f.Status != "" && f.Status != "all" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	// id sebagai pemecah seri supaya urutan stabil dalam satu response
	query += " ORDER BY created_at DESC, id"

	rows, err := config.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject mengambil satu project; ErrNotFound jika id/owner tidak cocok.
func GetProject(ctx context.Context, id string, userID int) (models.Project, error) {
	p, err := scanProject(config.DB.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = $1 AND user_id = $2",
		id, userID))
	if err == sql.ErrNoRows {
		return models.Project{}, ErrNotFound
	}
	return p, err
}

// CreateProject membuat project baru; created_at == updated_at saat dibuat.
func CreateProject(ctx context.Context, userID int, in ProjectInput) (models.Project, error) {
	now := time.Now().UTC()
	return scanProject(config.DB.QueryRowContext(ctx,
		`INSERT INTO projects (id, user_id, name, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING `+projectColumns,
		uuid.NewString(), userID, in.Name, in.Description, in.Status, now))
}

// UpdateProject mengubah field yang tidak nil dan menstempel updated_at.
func UpdateProject(ctx context.Context, id string, userID int, in ProjectUpdate) (models.Project, error) {
	p, err := scanProject(config.DB.QueryRowContext(ctx,
		`UPDATE projects
		 SET name = COALESCE($1, name),
		     description = COALESCE($2, description),
		     status = COALESCE($3, status),
		     updated_at = $4
		 WHERE id = $5 AND user_id = $6
		 RETURNING `+projectColumns,
		in.Name, in.Description, in.Status, time.Now().UTC(), id, userID))
	if err == sql.ErrNoRows {
		return models.Project{}, ErrNotFound
	}
	return p, err
}

// DeleteProject menghapus project milik userID. Menghapus id yang sudah
// tidak ada bukan error (delete idempotent).
func DeleteProject(ctx context.Context, id string, userID int) error {
	_, err := config.DB.ExecContext(ctx,
		"DELETE FROM projects WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

// GetProjectStats menghitung jumlah project per status.
func GetProjectStats(ctx context.Context, userID int) (ProjectStats, error) {
	rows, err := config.DB.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM projects WHERE user_id = $1 GROUP BY status", userID)
	if err != nil {
		return ProjectStats{}, err
	}
	defer rows.Close()

	var stats ProjectStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return ProjectStats{}, err
		}
		stats.Total += count
		switch status {
		case models.ProjectPlanning:
			stats.Planning = count
		case models.ProjectActive:
			stats.Active = count
		case models.ProjectCompleted:
			stats.Completed = count
		case models.ProjectArchived:
			stats.Archived = count
		}
	}
	return stats, rows.Err()
}

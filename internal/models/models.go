package models

import (
	"database/sql"
	"time"
)

// Status project, harus salah satu dari nilai ini
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

// Status dan priority task
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type User struct {
	ID        int            `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Avatar    sql.NullString `json:"avatar"`
	Verified  bool           `json:"verified"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Project struct {
	ID          string    `json:"id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Task struct {
	ID          string     `json:"id"`
	UserID      int        `json:"user_id"`
	ProjectID   *string    `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskWithProject adalah task yang di-join dengan nama project-nya,
// sama seperti select `*, projects(name)` di sisi klien.
type TaskWithProject struct {
	Task
	ProjectName *string `json:"project_name"`
}

// RecordID digunakan oleh realtime hub untuk reconciliation by id.
func (p Project) RecordID() string { return p.ID }

func (t Task) RecordID() string { return t.ID }

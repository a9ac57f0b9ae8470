package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"projecthub/internal/config"
	"projecthub/internal/models"
	"projecthub/internal/realtime"
	"projecthub/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("database not available")
	}
}

// Menghapus project melepas task-tasknya (project_id jadi NULL);
// subscriber change feed harus menerima update task itu, bukan cuma
// delete project-nya, supaya tidak memegang project_name basi.
func TestDeleteProjectBroadcastsDetachedTasks(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	var userID int
	require.NoError(t, config.DB.QueryRow(
		"INSERT INTO users (email, password, name) VALUES ('feed@example.com', 'x', 'Feed') RETURNING id").
		Scan(&userID))

	project, err := services.CreateProject(ctx, userID, services.ProjectInput{
		Name: "Akan Dihapus", Status: models.ProjectActive,
	})
	require.NoError(t, err)
	task, err := services.CreateTask(ctx, userID, services.TaskInput{
		ProjectID: &project.ID, Title: "Ditinggal",
		Status: models.TaskPending, Priority: models.PriorityLow,
	})
	require.NoError(t, err)

	projectsSub := config.Hub.Subscribe("projects", userID)
	defer config.Hub.Unsubscribe(projectsSub)
	tasksSub := config.Hub.Subscribe("tasks", userID)
	defer config.Hub.Unsubscribe(tasksSub)

	app := fiber.New()
	app.Delete("/projects/:id", authAs(userID), DeleteProject)
	resp, err := app.Test(httptest.NewRequest("DELETE", "/projects/"+project.ID, nil), 5000)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	select {
	case ev := <-projectsSub.C:
		assert.Equal(t, realtime.EventDelete, ev.Type)
		assert.Equal(t, project.ID, ev.RecordID)
	case <-time.After(time.Second):
		t.Fatal("expected project delete event")
	}

	select {
	case ev := <-tasksSub.C:
		assert.Equal(t, realtime.EventUpdate, ev.Type)
		assert.Equal(t, task.ID, ev.RecordID)
		record, ok := ev.Record.(models.TaskWithProject)
		require.True(t, ok)
		assert.Nil(t, record.ProjectID)
		assert.Nil(t, record.ProjectName)
	case <-time.After(time.Second):
		t.Fatal("expected update event for detached task")
	}

	// task masih ada di database, hanya lepas dari project
	got, err := services.GetTask(ctx, task.ID, userID)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
}

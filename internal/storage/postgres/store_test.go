package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

func getTestDatabaseURL() string {
	return os.Getenv("TASKFLOW_TEST_DATABASE_URL")
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	url := getTestDatabaseURL()
	if url == "" {
		t.Skip("TASKFLOW_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func TestOpenRejectsEmptyURL(t *testing.T) {
	_, err := Open(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestTaskLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, models.User{Name: "Ana", Email: uniqueEmail("ana"), PasswordHash: "hash"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, user.ID)
	})

	_, err = store.CreateUser(ctx, models.User{Name: "Dup", Email: user.Email, PasswordHash: "x"})
	assert.ErrorIs(t, err, storage.ErrConflict)

	due, _ := models.ParseDate("2024-06-01")
	task, err := store.CreateTask(ctx, user.ID, models.TaskInput{Title: "report", DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2024-06-01", task.DueDate.String())
	assert.Equal(t, models.PriorityMedium, task.Priority)

	done := true
	updated, err := store.UpdateTask(ctx, user.ID, task.ID, models.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	_, err = store.GetTask(ctx, user.ID+1_000_000, task.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.CreateCategory(ctx, user.ID, "work", "")
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, user.ID, "work", "")
	assert.ErrorIs(t, err, storage.ErrConflict)

	require.NoError(t, store.DeleteTask(ctx, user.ID, task.ID))
	assert.ErrorIs(t, store.DeleteTask(ctx, user.ID, task.ID), storage.ErrNotFound)
}

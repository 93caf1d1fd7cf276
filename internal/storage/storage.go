// Package storage declares the persistence contract of the backend.
package storage

import (
	"context"
	"errors"
	"math/rand/v2"

	"taskflow/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned by
	// the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("already exists")
)

// Store persists users, tasks and categories. Task and category methods are
// scoped to the owning user.
type Store interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	ListTasks(ctx context.Context, userID int64) ([]models.Task, error)
	ListDueTasks(ctx context.Context, userID int64) ([]models.Task, error)
	ListAllTasks(ctx context.Context) ([]models.AdminTask, error)
	CreateTask(ctx context.Context, userID int64, in models.TaskInput) (models.Task, error)
	GetTask(ctx context.Context, userID, id int64) (models.Task, error)
	UpdateTask(ctx context.Context, userID, id int64, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, userID, id int64) error

	ListCategories(ctx context.Context, userID int64) ([]models.Category, error)
	CreateCategory(ctx context.Context, userID int64, name, color string) (models.Category, error)

	Counts(ctx context.Context) (models.AdminStats, error)
	Close() error
}

// PaletteColor picks a category colour when none was given.
func PaletteColor() string {
	palette := []string{
		"#4361ee", // indigo
		"#2563eb", // blue-600
		"#7c3aed", // violet-600
		"#dc2626", // red-600
		"#059669", // green-600
		"#ea580c", // orange-600
		"#0ea5e9", // sky-500
	}
	return palette[rand.IntN(len(palette))]
}

// ApplyPatch merges patch into t. Blank titles and unknown priorities are
// ignored.
func ApplyPatch(t models.Task, patch models.TaskPatch) models.Task {
	if patch.Title != nil && trimmed(*patch.Title) != "" {
		t.Title = trimmed(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = trimmed(*patch.Description)
	}
	if patch.Category != nil {
		t.Category = trimmed(*patch.Category)
	}
	if patch.Priority != nil && patch.Priority.Valid() {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		d := *patch.DueDate
		t.DueDate = &d
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	return t
}

// NormalizeInput trims a new task and fills in the default priority.
func NormalizeInput(in models.TaskInput) (models.TaskInput, error) {
	in.Title = trimmed(in.Title)
	if in.Title == "" {
		return in, errors.New("task title must not be empty")
	}
	in.Description = trimmed(in.Description)
	in.Category = trimmed(in.Category)
	if !in.Priority.Valid() {
		in.Priority = models.PriorityMedium
	}
	return in, nil
}

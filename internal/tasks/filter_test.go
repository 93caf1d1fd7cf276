package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskflow/internal/models"
)

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: 1, Title: "report", Priority: models.PriorityHigh, Category: "work", Completed: true},
		{ID: 2, Title: "groceries", Priority: models.PriorityLow, Category: "home"},
		{ID: 3, Title: "deploy", Priority: models.PriorityHigh, Category: "work"},
		{ID: 4, Title: "gym", Priority: models.PriorityMedium, Category: "health", Completed: true},
		{ID: 5, Title: "review", Priority: models.PriorityHigh},
	}
}

func ids(tasks []models.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterTasks(t *testing.T) {
	tests := []struct {
		name   string
		filter models.Filter
		want   []int64
	}{
		{"empty filter", models.Filter{}, []int64{1, 2, 3, 4, 5}},
		{"status all", models.Filter{Status: models.StatusAll}, []int64{1, 2, 3, 4, 5}},
		{"completed", models.Filter{Status: models.StatusCompleted}, []int64{1, 4}},
		{"pending", models.Filter{Status: models.StatusPending}, []int64{2, 3, 5}},
		{"priority", models.Filter{Priority: models.PriorityHigh}, []int64{1, 3, 5}},
		{"category", models.Filter{Category: "work"}, []int64{1, 3}},
		{"pending high work", models.Filter{Status: models.StatusPending, Priority: models.PriorityHigh, Category: "work"}, []int64{3}},
		{"no match", models.Filter{Category: "travel"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterTasks(sampleTasks(), tt.filter)))
		})
	}
}

func TestFilterTasksIdempotent(t *testing.T) {
	f := models.Filter{Status: models.StatusPending, Priority: models.PriorityHigh}
	once := FilterTasks(sampleTasks(), f)
	twice := FilterTasks(once, f)
	assert.Equal(t, once, twice)
}

func TestFilterTasksDoesNotMutateInput(t *testing.T) {
	in := sampleTasks()
	out := FilterTasks(in, models.Filter{Status: models.StatusCompleted})
	out[0].Title = "changed"

	assert.Equal(t, sampleTasks(), in)
}

package tasks

import "taskflow/internal/models"

// FilterTasks returns the tasks matching f in their original order. Status
// is applied first, then priority, then category; zero-valued fields match
// everything. The input slice is not modified.
func FilterTasks(tasks []models.Task, f models.Filter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t models.Task, f models.Filter) bool {
	switch f.Status {
	case models.StatusCompleted:
		if !t.Completed {
			return false
		}
	case models.StatusPending:
		if t.Completed {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

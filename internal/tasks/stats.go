package tasks

import (
	"math"

	"taskflow/internal/models"
)

// ComputeStats derives the completion counters of a task set. Productivity
// is the rounded completion percentage, zero for an empty set.
func ComputeStats(tasks []models.Task) models.Stats {
	stats := models.Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.Productivity = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats
}

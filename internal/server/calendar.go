package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
)

type eventColors struct {
	background, border, text string
}

var (
	priorityColors = map[models.Priority]eventColors{
		models.PriorityHigh:   {"#f56565", "#c53030", "#fff"},
		models.PriorityMedium: {"#fbbf24", "#f59e0b", "#1f2937"},
		models.PriorityLow:    {"#48bb78", "#38a169", "#fff"},
	}
	completedColors = eventColors{"#a0aec0", "#718096", "#4a5568"}
)

// handleCalendar returns the caller's dated tasks as calendar events.
// Anonymous callers get an empty list.
func (s *Server) handleCalendar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondSuccess(c, http.StatusOK, []models.CalendarEvent{})
		return
	}

	tasks, err := s.store.ListDueTasks(c.Request.Context(), user.ID)
	if err != nil {
		s.respondStoreError(c, err, taskNotFound)
		return
	}
	respondSuccess(c, http.StatusOK, calendarEvents(tasks))
}

func calendarEvents(tasks []models.Task) []models.CalendarEvent {
	events := make([]models.CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		colors, ok := priorityColors[t.Priority]
		if !ok {
			colors = priorityColors[models.PriorityLow]
		}
		title := t.Title
		if t.Completed {
			colors = completedColors
			title += " (✓ Completed)"
		}
		category := t.Category
		if category == "" {
			category = "Uncategorized"
		}

		events = append(events, models.CalendarEvent{
			ID:              t.ID,
			Title:           title,
			Start:           t.DueDate.String(),
			AllDay:          true,
			BackgroundColor: colors.background,
			BorderColor:     colors.border,
			TextColor:       colors.text,
			Description:     t.Description,
			ExtendedProps: map[string]any{
				"category": category,
				"priority": capitalize(string(t.Priority)),
			},
		})
	}
	return events
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

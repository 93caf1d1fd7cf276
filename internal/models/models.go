package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ValidPriorities enumerates the priorities accepted by the API.
var ValidPriorities = map[Priority]struct{}{
	PriorityHigh:   {},
	PriorityMedium: {},
	PriorityLow:    {},
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := ValidPriorities[p]
	return ok
}

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler. The zero date encodes as "", which
// clears a due date in a patch.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts YYYY-MM-DD as well as full RFC 3339 timestamps.
func (d *Date) UnmarshalJSON(b []byte) error {
	return d.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	raw := string(b)
	if raw == "" || raw == "null" {
		*d = Date{}
		return nil
	}
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task is a single to-do item owned by a user.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"due_date,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskInput carries the fields of a task being created.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     *Date    `json:"due_date,omitempty"`
}

// TaskPatch carries a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *Date     `json:"due_date,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Priority == nil && p.DueDate == nil && p.Completed == nil
}

// Category is a user-defined label tasks can be filed under.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// User is an account registered on the backend.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	PasswordHash string    `json:"-"`
}

// Identity returns the key-value view of the user handed to clients.
func (u User) Identity() map[string]any {
	return map[string]any{
		"id":       u.ID,
		"name":     u.Name,
		"email":    u.Email,
		"is_admin": u.IsAdmin,
	}
}

// StatusFilter selects tasks by completion.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

// Filter narrows a task list. Zero-valued fields match everything.
type Filter struct {
	Status   StatusFilter `json:"status,omitempty"`
	Priority Priority     `json:"priority,omitempty"`
	Category string       `json:"category,omitempty"`
}

// Stats aggregates completion counters over a task set.
type Stats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Pending      int `json:"pending"`
	Productivity int `json:"productivity"`
}

// AdminStats holds the global counters shown on the admin dashboard.
type AdminStats struct {
	TotalUsers      int64 `json:"total_users"`
	TotalTasks      int64 `json:"total_tasks"`
	TotalCategories int64 `json:"total_categories"`
}

// AdminTask is a task annotated with its owner for the admin listing.
type AdminTask struct {
	Task
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// CalendarEvent is the calendar projection of a task with a due date.
type CalendarEvent struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Start           string         `json:"start"`
	AllDay          bool           `json:"allDay"`
	BackgroundColor string         `json:"backgroundColor"`
	BorderColor     string         `json:"borderColor"`
	TextColor       string         `json:"textColor"`
	Description     string         `json:"description"`
	ExtendedProps   map[string]any `json:"extendedProps"`
}

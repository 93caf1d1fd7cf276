// Package ui defines the capabilities the client core calls back into and a
// terminal implementation used by the CLI.
package ui

import "context"

// Severity grades a user notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Navigator moves the user to another view.
type Navigator interface {
	NavigateTo(path string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Paths of the views the core redirects to.
const (
	PathLogin    = "/login"
	PathRegister = "/register"
	PathHome     = "/"
	PathTasks    = "/tasks"
	PathAdmin    = "/admin"
)

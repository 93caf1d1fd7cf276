package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var severityIcons = map[Severity]string{
	SeveritySuccess: "ok",
	SeverityError:   "error",
	SeverityWarning: "warn",
	SeverityInfo:    "info",
}

// navigationHints tells a terminal user which command reaches a view.
var navigationHints = map[string]string{
	PathLogin:    "run `taskflow login` to sign in",
	PathRegister: "run `taskflow register` to create an account",
	PathTasks:    "run `taskflow tasks list` to see your tasks",
	PathAdmin:    "run `taskflow admin login` to open the admin dashboard",
}

// Terminal implements Notifier, Navigator and Confirmer on a pair of
// streams.
type Terminal struct {
	mu        sync.Mutex
	out       io.Writer
	in        *bufio.Reader
	logger    *slog.Logger
	assumeYes bool
	location  string

	readOnce sync.Once
	answers  chan answer
}

type answer struct {
	line string
	err  error
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithAssumeYes answers every confirmation with yes without prompting.
func WithAssumeYes(yes bool) TerminalOption {
	return func(t *Terminal) {
		t.assumeYes = yes
	}
}

// WithLogger sets the logger notices are mirrored to.
func WithLogger(logger *slog.Logger) TerminalOption {
	return func(t *Terminal) {
		t.logger = logger
	}
}

// NewTerminal builds a terminal reading answers from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		out:      out,
		in:       bufio.NewReader(in),
		logger:   slog.Default(),
		location: PathHome,
		answers:  make(chan answer),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Notify prints the message prefixed with its severity.
func (t *Terminal) Notify(message string, severity Severity) {
	icon, ok := severityIcons[severity]
	if !ok {
		icon = severityIcons[SeverityInfo]
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%s] %s\n", icon, message)

	if severity == SeverityError {
		t.logger.Debug("user notified", slog.String("severity", string(severity)), slog.String("message", message))
	}
}

// NavigateTo records the new location and prints how to get there.
func (t *Terminal) NavigateTo(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.location == path {
		return
	}
	t.location = path
	if hint, ok := navigationHints[path]; ok {
		fmt.Fprintf(t.out, "-> %s\n", hint)
	}
}

// Location returns the last view navigated to.
func (t *Terminal) Location() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.location
}

// Confirm asks a y/N question. Anything but y or yes declines.
//
// A single goroutine reads the input for the terminal's lifetime, so a
// prompt abandoned through ctx leaves no reader behind; a line typed after
// that answers the next prompt.
func (t *Terminal) Confirm(ctx context.Context, message string) (bool, error) {
	if t.assumeYes {
		return true, nil
	}

	t.mu.Lock()
	fmt.Fprintf(t.out, "%s [y/N]: ", message)
	t.mu.Unlock()

	t.readOnce.Do(func() { go t.readAnswers() })

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a, ok := <-t.answers:
		if !ok {
			return false, nil
		}
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("read answer: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// readAnswers feeds input lines to Confirm until the input ends.
func (t *Terminal) readAnswers() {
	defer close(t.answers)
	for {
		line, err := t.in.ReadString('\n')
		t.answers <- answer{line: line, err: err}
		if err != nil {
			return
		}
	}
}

package ui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalNotify(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out)

	term.Notify("Task created", SeveritySuccess)
	term.Notify("Could not load tasks", SeverityError)
	term.Notify("odd", Severity("custom"))

	assert.Equal(t, "[ok] Task created\n[error] Could not load tasks\n[info] odd\n", out.String())
}

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"long yes", "YES\n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"eof", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminal(strings.NewReader(tt.input), &out)

			ok, err := term.Confirm(context.Background(), "Delete this task?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Delete this task? [y/N]")
		})
	}
}

func TestTerminalConfirmAfterCancelledPrompt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	term := NewTerminal(pr, &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := term.Confirm(ctx, "Delete this task?")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)

	go func() { _, _ = io.WriteString(pw, "yes\n") }()
	ok, err = term.Confirm(context.Background(), "Delete that task?")
	require.NoError(t, err)
	assert.True(t, ok)

	go func() { _, _ = io.WriteString(pw, "n\n") }()
	ok, err = term.Confirm(context.Background(), "And this one?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTerminalConfirmAssumeYes(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, WithAssumeYes(true))

	ok, err := term.Confirm(context.Background(), "Delete this task?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, out.String())
}

func TestTerminalNavigate(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out)

	term.NavigateTo(PathLogin)
	term.NavigateTo(PathLogin)

	assert.Equal(t, PathLogin, term.Location())
	assert.Equal(t, 1, strings.Count(out.String(), "taskflow login"))
}

package apperr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"session expired", ErrSessionExpired, KindAuthExpired},
		{"wrapped session expired", fmt.Errorf("load tasks: %w", ErrSessionExpired), KindAuthExpired},
		{"validation", &ValidationError{Field: "title", Message: "title is required"}, KindValidation},
		{"api", &APIError{Status: 500}, KindAPI},
		{"wrapped network", fmt.Errorf("x: %w", &NetworkError{Op: "GET /api/tasks", Err: io.EOF}), KindNetwork},
		{"other", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNotice(t *testing.T) {
	assert.Equal(t, "", Notice(nil, "fallback"))
	assert.Equal(t, "title is required", Notice(&ValidationError{Field: "title", Message: "title is required"}, "fallback"))
	assert.Equal(t, "Email already exists", Notice(&APIError{Status: 400, Message: "Email already exists"}, "fallback"))
	assert.Equal(t, "fallback", Notice(&APIError{Status: 500}, "fallback"))
	assert.Equal(t, "Connection error", Notice(&NetworkError{Op: "GET", Err: io.EOF}, "fallback"))
	assert.Equal(t, "fallback", Notice(errors.New("boom"), "fallback"))
}

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error payload", `{"error":"Invalid credentials"}`, "Invalid credentials"},
		{"plain text", "bad gateway\n", "bad gateway"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: 400, Body: io.NopCloser(strings.NewReader(tt.body))}
			err := FromResponse(resp)
			assert.Equal(t, 400, err.Status)
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	err := &NetworkError{Op: "GET /api/tasks", Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

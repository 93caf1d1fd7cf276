// Package apperr normalises the failure modes of API calls into a small set
// of error kinds that callers can turn into user notices.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Kind classifies an error returned by the client core.
type Kind int

const (
	KindNone Kind = iota
	KindAuthExpired
	KindValidation
	KindAPI
	KindNetwork
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindAuthExpired:
		return "auth_expired"
	case KindValidation:
		return "validation"
	case KindAPI:
		return "api"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ErrSessionExpired is returned when the backend rejected the bearer token or
// the credential was cleared while a request was in flight.
var ErrSessionExpired = errors.New("session expired")

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// APIError is a non-2xx response, carrying the message of an {"error": ...}
// payload when the server sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// NetworkError wraps a transport failure (DNS, refused connection, timeout).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// KindOf reports which kind of failure err represents.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrSessionExpired) {
		return KindAuthExpired
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	var aerr *APIError
	if errors.As(err, &aerr) {
		return KindAPI
	}
	var nerr *NetworkError
	if errors.As(err, &nerr) {
		return KindNetwork
	}
	return KindUnknown
}

// Notice turns err into the text shown to the user. fallback is used for API
// errors without a server message and for unclassified errors.
func Notice(err error, fallback string) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindAuthExpired:
		return "Session expired, please sign in again"
	case KindValidation:
		var verr *ValidationError
		errors.As(err, &verr)
		return verr.Message
	case KindAPI:
		var aerr *APIError
		errors.As(err, &aerr)
		if aerr.Message != "" {
			return aerr.Message
		}
		return fallback
	case KindNetwork:
		return "Connection error"
	default:
		return fallback
	}
}

// FromResponse builds an APIError from a non-2xx response. The body is read
// but not closed.
func FromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Error
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

// Success reports whether the status code is in the 2xx range.
func Success(status int) bool {
	return status >= 200 && status < 300
}

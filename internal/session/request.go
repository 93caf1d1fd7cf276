package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"taskflow/internal/apperr"
	"taskflow/internal/ui"
)

// issuedKey tags a request's context with the credential it was sent with.
type issuedKey struct{}

type issued struct {
	authorized bool
	generation uint64
}

// Do issues an authorized request. Caller headers are merged with a JSON
// content type, which a caller-supplied Content-Type overrides, and, when a
// token is held, the bearer header. A non-nil body is JSON encoded.
//
// A 401 clears the credential, redirects to the login view and returns
// apperr.ErrSessionExpired without exposing the response. Transport failures
// come back as *apperr.NetworkError and leave the credential alone. If the
// credential the request was authorized with is cleared or replaced before
// the response arrives, the response is dropped and ErrSessionExpired is
// returned.
//
// On success the caller owns resp.Body.
func (s *Store) Do(ctx context.Context, method, path string, body any, header http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	token, generation := s.snapshot()
	ctx = context.WithValue(ctx, issuedKey{}, issued{authorized: token != "", generation: generation})

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("request failed", slog.String("method", method), slog.String("path", path), slog.String("error", err.Error()))
		return nil, &apperr.NetworkError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		s.logger.Warn("credential rejected", slog.String("method", method), slog.String("path", path))
		superseded, err := s.expire(ctx, generation)
		if err != nil {
			s.logger.Error("clear credential failed", slog.String("error", err.Error()))
		}
		if !superseded {
			s.navigate(ui.PathLogin)
		}
		return nil, apperr.ErrSessionExpired
	}

	if !s.Current(resp) {
		drain(resp)
		s.logger.Debug("dropping response for revoked credential", slog.String("path", path))
		return nil, fmt.Errorf("%w: credential changed while %s %s was in flight", apperr.ErrSessionExpired, method, path)
	}

	return resp, nil
}

// Current reports whether resp still belongs to the held credential. A
// response to a request sent without a token is always current. Callers that
// read the body after Do returned check again before acting on it, since the
// credential may change while the body streams in.
func (s *Store) Current(resp *http.Response) bool {
	if resp == nil || resp.Request == nil {
		return true
	}
	sent, ok := resp.Request.Context().Value(issuedKey{}).(issued)
	if !ok || !sent.authorized {
		return true
	}
	_, generation := s.snapshot()
	return generation == sent.generation
}

// expire clears the credential unless a newer one was set after the request
// was issued, in which case it reports superseded.
func (s *Store) expire(ctx context.Context, generation uint64) (superseded bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation && s.token != "" {
		return true, nil
	}
	return false, s.clearLocked(ctx)
}

// DecodeJSON reads a successful response into dst, or converts a non-2xx
// response into *apperr.APIError. The body is always closed.
func DecodeJSON(resp *http.Response, dst any) error {
	defer resp.Body.Close()
	if !apperr.Success(resp.StatusCode) {
		return apperr.FromResponse(resp)
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

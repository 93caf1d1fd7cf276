package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"taskflow/internal/apperr"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Token    string   `json:"token"`
	User     Identity `json:"user"`
	Redirect string   `json:"redirect"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and stores it. The request is sent
// without any bearer header so a rejected login never touches an existing
// session.
func (s *Store) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	resp, err := s.postPublic(ctx, "/api/login", loginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return LoginResult{}, err
	}

	var result LoginResult
	if err := DecodeJSON(resp, &result); err != nil {
		return LoginResult{}, err
	}
	if result.Token == "" {
		return LoginResult{}, &apperr.APIError{Status: resp.StatusCode, Message: "login response carried no token"}
	}
	if err := s.SetAuth(ctx, result.Token, result.User); err != nil {
		return LoginResult{}, err
	}

	s.logger.Info("signed in", slog.String("email", result.User.Email()))
	return result, nil
}

// Register creates an account. Only HTTP 201 counts as success.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	resp, err := s.postPublic(ctx, "/api/register", registerRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return apperr.FromResponse(resp)
	}
	return nil
}

func (s *Store) postPublic(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "POST " + path, Err: err}
	}
	return resp, nil
}

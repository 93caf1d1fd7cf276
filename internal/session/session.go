// Package session holds the user's bearer credential and issues requests
// authorized with it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskflow/internal/ui"
)

// Identity is the user record returned by the backend at login.
type Identity map[string]any

// Name returns the display name stored in the identity, if any.
func (id Identity) Name() string {
	if v, ok := id["name"].(string); ok {
		return v
	}
	return ""
}

// Email returns the email stored in the identity, if any.
func (id Identity) Email() string {
	if v, ok := id["email"].(string); ok {
		return v
	}
	return ""
}

var publicPaths = map[string]struct{}{
	ui.PathLogin:    {},
	ui.PathRegister: {},
}

// Store manages the credential and gates protected views.
type Store struct {
	mu         sync.RWMutex
	token      string
	identity   Identity
	generation uint64

	kv      KeyValueStore
	nav     ui.Navigator
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets the client used for outgoing requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		s.client = c
	}
}

// WithBaseURL prefixes every request path with the API origin.
func WithBaseURL(u string) Option {
	return func(s *Store) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New builds a Store and restores any credential persisted in kv. A store
// holding only one half of a credential is wiped.
func New(ctx context.Context, kv KeyValueStore, nav ui.Navigator, opts ...Option) (*Store, error) {
	if kv == nil {
		kv = NewMemoryStore()
	}
	s := &Store{
		kv:     kv,
		nav:    nav,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) restore(ctx context.Context) error {
	token, hasToken, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	rawUser, hasUser, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}

	var identity Identity
	if hasUser && rawUser != "" {
		if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
			s.logger.Warn("discarding unreadable stored identity", slog.String("error", err.Error()))
			identity = nil
		}
	}

	if !hasToken || token == "" || identity == nil {
		if hasToken || hasUser {
			s.logger.Warn("incomplete stored credential, clearing")
			if err := s.kv.Delete(ctx, KeyToken, KeyUser); err != nil {
				return fmt.Errorf("clear credential: %w", err)
			}
		}
		return nil
	}

	s.token = token
	s.identity = identity
	return nil
}

// IsAuthenticated reports whether a non-empty token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current bearer token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns a copy of the current user record.
func (s *Store) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	out := make(Identity, len(s.identity))
	for k, v := range s.identity {
		out[k] = v
	}
	return out
}

// SetAuth replaces the credential in memory and in the key-value store. If
// persisting fails, both keys are removed again so the store never holds half
// a credential.
func (s *Store) SetAuth(ctx context.Context, token string, identity Identity) error {
	if identity == nil {
		identity = Identity{}
	}
	rawUser, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, KeyUser, string(rawUser)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	if err := s.kv.Set(ctx, KeyToken, token); err != nil {
		if derr := s.kv.Delete(ctx, KeyToken, KeyUser); derr != nil {
			s.logger.Error("rollback credential failed", slog.String("error", derr.Error()))
		}
		return fmt.Errorf("persist token: %w", err)
	}

	s.token = token
	s.identity = identity
	s.generation++
	return nil
}

// ClearAuth removes the credential from memory and storage. Clearing an
// empty store is a no-op.
func (s *Store) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) error {
	if s.token != "" || s.identity != nil {
		s.generation++
	}
	s.token = ""
	s.identity = nil
	if err := s.kv.Delete(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// RequireAuth redirects to the login view when path is protected and no
// credential is held. It returns whether the caller may proceed.
func (s *Store) RequireAuth(path string) bool {
	if _, public := publicPaths[path]; public {
		return true
	}
	if s.IsAuthenticated() {
		return true
	}
	s.navigate(ui.PathLogin)
	return false
}

// Logout clears the credential and returns to the login view.
func (s *Store) Logout(ctx context.Context) error {
	err := s.ClearAuth(ctx)
	s.navigate(ui.PathLogin)
	return err
}

func (s *Store) navigate(path string) {
	if s.nav != nil {
		s.nav.NavigateTo(path)
	}
}

// snapshot returns the token and the generation it belongs to.
func (s *Store) snapshot() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.generation
}

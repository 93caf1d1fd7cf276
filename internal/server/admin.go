package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// AdminCookie names the admin session cookie.
const AdminCookie = "taskflow_admin"

// adminSessions tracks the open admin cookie sessions in memory. They do not
// survive a restart.
type adminSessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]time.Time
}

func newAdminSessions(ttl time.Duration) *adminSessions {
	return &adminSessions{ttl: ttl, now: time.Now, sessions: make(map[string]time.Time)}
}

func (a *adminSessions) open() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	for id, expires := range a.sessions {
		if now.After(expires) {
			delete(a.sessions, id)
		}
	}
	id := uuid.NewString()
	a.sessions[id] = now.Add(a.ttl)
	return id
}

func (a *adminSessions) valid(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	expires, ok := a.sessions[id]
	if !ok {
		return false
	}
	if a.now().After(expires) {
		delete(a.sessions, id)
		return false
	}
	return true
}

func (a *adminSessions) close(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, id)
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

// handleAdminLogin opens a cookie session for the shared admin password.
func (s *Server) handleAdminLogin(c *gin.Context) {
	if s.cfg.AdminPassword == "" {
		s.respondError(c, http.StatusForbidden, errors.New("admin access is disabled"))
		return
	}

	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.AdminPassword)) != 1 {
		s.logger.Warn("admin login rejected", slog.String("remote", c.ClientIP()))
		s.respondError(c, http.StatusUnauthorized, errors.New("Invalid password"))
		return
	}

	id := s.admins.open()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminCookie, id, int(s.cfg.AdminSessionTTL.Seconds()), "/", "", s.cfg.SecureCookies, true)
	s.logger.Info("admin signed in", slog.String("remote", c.ClientIP()))
	respondSuccess(c, http.StatusOK, gin.H{"success": true})
}

// handleAdminLogout closes the cookie session, if any.
func (s *Server) handleAdminLogout(c *gin.Context) {
	if id, err := c.Cookie(AdminCookie); err == nil {
		s.admins.close(id)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminCookie, "", -1, "/", "", s.cfg.SecureCookies, true)
	respondSuccess(c, http.StatusOK, gin.H{"success": true})
}

// requireAdmin admits an open admin cookie session, or a bearer token that
// belongs to an administrator account.
func (s *Server) requireAdmin(c *gin.Context) {
	if id, err := c.Cookie(AdminCookie); err == nil && s.admins.valid(id) {
		c.Next()
		return
	}

	user, err := s.authenticate(c)
	if err != nil {
		s.respondError(c, http.StatusUnauthorized, errors.New("admin access required"))
		return
	}
	if !user.IsAdmin {
		s.respondError(c, http.StatusForbidden, errors.New("access denied"))
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func (s *Server) handleAdminUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "user not found")
		return
	}
	respondSuccess(c, http.StatusOK, users)
}

func (s *Server) handleAdminStats(c *gin.Context) {
	stats, err := s.store.Counts(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "")
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

func (s *Server) handleAdminAllTasks(c *gin.Context) {
	tasks, err := s.store.ListAllTasks(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, taskNotFound)
		return
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// SeedAdmin creates the administrator account when it does not exist yet.
// It is a no-op unless both email and password are set.
func SeedAdmin(ctx context.Context, store storage.Store, email, password string, logger *slog.Logger) error {
	if email == "" || password == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	_, err := store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user, err := store.CreateUser(ctx, models.User{Name: "Administrator", Email: email, PasswordHash: hash, IsAdmin: true})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("seeded administrator", slog.Int64("user_id", user.ID), slog.String("email", user.Email))
	return nil
}

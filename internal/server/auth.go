package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflow/internal/apperr"
	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/storage"
	"taskflow/internal/ui"
	"taskflow/internal/validate"
)

const userKey = "taskflow.user"

var errUnauthorized = errors.New("unauthorized")

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin exchanges an email and password for a bearer token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	// Older clients send the identifier as "email".
	if req.Identifier == "" {
		req.Identifier = req.Email
	}
	if err := validate.Login(validate.LoginForm{Identifier: req.Identifier, Password: req.Password}); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), req.Identifier)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.respondStoreError(c, err, "")
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.respondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	redirect := ui.PathTasks
	if user.IsAdmin {
		redirect = ui.PathAdmin
	}
	s.logger.Info("user signed in", slog.Int64("user_id", user.ID))
	respondSuccess(c, http.StatusOK, gin.H{
		"token":    token,
		"user":     user.Identity(),
		"redirect": redirect,
	})
}

// handleRegister creates a regular account.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	form := validate.RegisterForm{Name: strings.TrimSpace(req.Name), Email: strings.TrimSpace(req.Email), Password: req.Password}
	if err := validate.Register(form); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		if auth.IsHashTooLong(err) {
			s.respondError(c, http.StatusBadRequest, &apperr.ValidationError{Field: "password", Message: "Password is too long"})
			return
		}
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), models.User{Name: form.Name, Email: form.Email, PasswordHash: hash})
	if errors.Is(err, storage.ErrConflict) {
		s.respondError(c, http.StatusBadRequest, errors.New("email already registered"))
		return
	}
	if err != nil {
		s.respondStoreError(c, err, "")
		return
	}

	s.logger.Info("user registered", slog.Int64("user_id", user.ID))
	respondSuccess(c, http.StatusCreated, gin.H{"message": "registered", "user": user.Identity()})
}

// requireUser rejects requests without a valid bearer token of an existing
// account.
func (s *Server) requireUser(c *gin.Context) {
	user, err := s.authenticate(c)
	if err != nil {
		s.respondError(c, http.StatusUnauthorized, errUnauthorized)
		return
	}
	c.Set(userKey, user)
	c.Next()
}

// optionalUser attaches the caller when a valid token is present and lets
// anonymous requests through.
func (s *Server) optionalUser(c *gin.Context) {
	if user, err := s.authenticate(c); err == nil {
		c.Set(userKey, user)
	}
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) (models.User, error) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return models.User{}, errUnauthorized
	}
	claims, err := s.tokens.Validate(strings.TrimSpace(raw))
	if err != nil {
		return models.User{}, err
	}
	return s.store.GetUser(c.Request.Context(), claims.UserID)
}

// currentUser returns the caller set by requireUser or optionalUser.
func currentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

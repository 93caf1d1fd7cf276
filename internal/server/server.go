package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskflow/internal/apperr"
	"taskflow/internal/auth"
	"taskflow/internal/storage"
)

// Config holds the server settings that are not dependencies.
type Config struct {
	StaticDir       string
	AdminPassword   string
	AdminSessionTTL time.Duration
	SecureCookies   bool
}

// Server provides HTTP handlers for the TaskFlow backend.
type Server struct {
	engine *gin.Engine
	store  storage.Store
	tokens *auth.TokenManager
	admins *adminSessions
	logger *slog.Logger
	cfg    Config
}

// New constructs the HTTP server with routes and middleware configured.
func New(store storage.Store, tokens *auth.TokenManager, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AdminSessionTTL <= 0 {
		cfg.AdminSessionTTL = 12 * time.Hour
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))

	srv := &Server{
		engine: router,
		store:  store,
		tokens: tokens,
		admins: newAdminSessions(cfg.AdminSessionTTL),
		logger: logger,
		cfg:    cfg,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/login", s.handleLogin)
		api.POST("/register", s.handleRegister)
		api.GET("/calendar/tasks", s.optionalUser, s.handleCalendar)

		user := api.Group("", s.requireUser)
		{
			user.GET("/tasks", s.handleListTasks)
			user.POST("/tasks", s.handleCreateTask)
			user.PUT("/tasks/:id", s.handleUpdateTask)
			user.DELETE("/tasks/:id", s.handleDeleteTask)

			user.GET("/categories", s.handleListCategories)
			user.POST("/categories", s.handleCreateCategory)
		}

		admin := api.Group("/admin", s.requireAdmin)
		{
			admin.GET("/users", s.handleAdminUsers)
			admin.GET("/stats", s.handleAdminStats)
			admin.GET("/all-tasks", s.handleAdminAllTasks)
		}
	}

	s.engine.POST("/admin/login", s.handleAdminLogin)
	s.engine.GET("/admin/logout", s.handleAdminLogout)
	s.engine.POST("/admin/logout", s.handleAdminLogout)

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs server side failures and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		s.logger.Debug("request rejected", slog.String("path", c.FullPath()), slog.Int("status", status), slog.String("error", err.Error()))
	}
	msg := err.Error()
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		msg = verr.Message
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondStoreError maps storage sentinels to status codes. Anything else
// is an internal error whose details stay in the log.
func (s *Server) respondStoreError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(c, http.StatusNotFound, errors.New(notFound))
	case errors.Is(err, storage.ErrConflict):
		s.respondError(c, http.StatusConflict, err)
	default:
		s.logger.Error("store failure", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// respondSuccess writes the payload, or only the status when there is none.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// pages maps the browser routes to the html files of the static frontend.
var pages = map[string]string{
	"/":         "index.html",
	"/login":    "login.html",
	"/register": "register.html",
	"/tasks":    "tasks.html",
	"/calendar": "calendar.html",
	"/admin":    "admin.html",
}

// mountStatic serves the pre-built frontend from the configured directory.
func (s *Server) mountStatic() {
	dir := s.cfg.StaticDir
	if dir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		s.mountNotFound("")
		return
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", dir, "error", err)
		s.mountNotFound("")
		return
	}

	for route, file := range pages {
		path := filepath.Join(dir, file)
		if _, err := os.Stat(path); err != nil {
			s.logger.Debug("page not found", "route", route, "path", path)
			continue
		}
		s.engine.GET(route, func(c *gin.Context) {
			c.File(path)
		})
	}

	for _, sub := range []string{"static", "assets"} {
		assets := filepath.Join(dir, sub)
		if _, err := os.Stat(assets); err == nil {
			s.engine.StaticFS("/"+sub, gin.Dir(assets, false))
		}
	}

	favicon := filepath.Join(dir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}

	s.mountNotFound(filepath.Join(dir, "index.html"))
}

// mountNotFound answers unknown API paths with JSON and everything else with
// the index page when there is one.
func (s *Server) mountNotFound(index string) {
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || index == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		if _, err := os.Stat(index); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
			return
		}
		c.File(index)
	})
}

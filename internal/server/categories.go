package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflow/internal/storage"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// handleListCategories returns the caller's categories.
func (s *Server) handleListCategories(c *gin.Context) {
	user, _ := currentUser(c)
	categories, err := s.store.ListCategories(c.Request.Context(), user.ID)
	if err != nil {
		s.respondStoreError(c, err, "category not found")
		return
	}
	respondSuccess(c, http.StatusOK, categories)
}

// handleCreateCategory adds a label. The store picks a colour when none is
// given.
func (s *Server) handleCreateCategory(c *gin.Context) {
	user, _ := currentUser(c)

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.respondError(c, http.StatusBadRequest, errors.New("Name is required"))
		return
	}
	category, err := s.store.CreateCategory(c.Request.Context(), user.ID, name, strings.TrimSpace(req.Color))
	if errors.Is(err, storage.ErrConflict) {
		s.respondError(c, http.StatusConflict, errors.New("category already exists"))
		return
	}
	if err != nil {
		s.respondStoreError(c, err, "category not found")
		return
	}
	respondSuccess(c, http.StatusCreated, category)
}

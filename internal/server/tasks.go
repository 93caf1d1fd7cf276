package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
	"taskflow/internal/validate"
)

const taskNotFound = "task not found"

// handleListTasks returns the caller's tasks.
func (s *Server) handleListTasks(c *gin.Context) {
	user, _ := currentUser(c)
	tasks, err := s.store.ListTasks(c.Request.Context(), user.ID)
	if err != nil {
		s.respondStoreError(c, err, taskNotFound)
		return
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handleCreateTask inserts a new task for the caller.
func (s *Server) handleCreateTask(c *gin.Context) {
	user, _ := currentUser(c)

	var form validate.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	input, err := validate.Task(form)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), user.ID, input)
	if err != nil {
		s.respondStoreError(c, err, taskNotFound)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

// handleUpdateTask applies a partial update such as a completion toggle.
func (s *Server) handleUpdateTask(c *gin.Context) {
	user, _ := currentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if patch.Empty() {
		s.respondError(c, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		s.respondError(c, http.StatusBadRequest, errors.New("Title is required"))
		return
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		s.respondError(c, http.StatusBadRequest, errors.New("Priority must be one of: high medium low"))
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), user.ID, id, patch)
	if err != nil {
		s.respondStoreError(c, err, taskNotFound)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	user, _ := currentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), user.ID, id); err != nil {
		s.respondStoreError(c, err, taskNotFound)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

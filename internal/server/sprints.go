package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pmboard/internal/models"
	"pmboard/internal/stats"
)

// handleListSprints returns all sprints.
func (s *Server) handleListSprints(c *gin.Context) {
	sprints, err := s.store.ListSprints(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprints": sprints})
}

func (s *Server) handleGetSprint(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sprint, err := s.store.GetSprint(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprint": sprint})
}

// handleActiveSprint returns the first active sprint, or null.
func (s *Server) handleActiveSprint(c *gin.Context) {
	sprints, err := s.store.ListSprints(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	active, ok := stats.ActiveSprint(sprints)
	if !ok {
		respondSuccess(c, http.StatusOK, gin.H{"sprint": nil})
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprint": active})
}

// handleCreateSprint creates a sprint, planned by default.
func (s *Server) handleCreateSprint(c *gin.Context) {
	var req models.SprintInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	sprint, err := s.store.CreateSprint(c.Request.Context(), req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"sprint": sprint})
}

func (s *Server) handleUpdateSprint(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.SprintPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	sprint, err := s.store.UpdateSprint(c.Request.Context(), id, req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprint": sprint})
}

// handleDeleteSprint removes a sprint; its tasks are left in place.
func (s *Server) handleDeleteSprint(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := s.store.DeleteSprint(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleSprintProgress returns the sprint card figures.
func (s *Server) handleSprintProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sprint, err := s.store.GetSprint(ctx, id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"progress": stats.SummarizeSprint(sprint, tasks)})
}

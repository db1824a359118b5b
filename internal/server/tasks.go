package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pmboard/internal/board"
	"pmboard/internal/filter"
	"pmboard/internal/models"
)

type moveRequest struct {
	Status models.Status `json:"status"`
}

// filterFromQuery reads the task filter from query parameters.
func filterFromQuery(c *gin.Context) (filter.Spec, error) {
	return filter.ParseSpec(c.Query("role"), c.Query("priority"), c.Query("assigneeId"), c.Query("search"))
}

// handleListTasks returns the tasks matching the query filter.
func (s *Server) handleListTasks(c *gin.Context) {
	spec, err := filterFromQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": filter.Tasks(tasks, spec), "total": len(tasks), "filtered": spec.Active()})
}

// handleBoard returns the filtered tasks grouped into columns.
func (s *Server) handleBoard(c *gin.Context) {
	spec, err := filterFromQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"columns": board.Group(filter.Tasks(tasks, spec)), "filtered": spec.Active()})
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleCreateTask inserts a new task.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req models.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask merges the supplied fields over the stored task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.TaskPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleMoveTask is the drag-and-drop contract: change status only.
func (s *Server) handleMoveTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("status is required"))
		return
	}

	ctx, sink := withNoticeSink(c.Request.Context())
	task, changed, err := s.board.Move(ctx, id, req.Status)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task, "changed": changed, "notices": sink.list()})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

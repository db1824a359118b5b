package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pmboard/internal/filter"
	"pmboard/internal/models"
	"pmboard/internal/stats"
)

func (s *Server) handleListMembers(c *gin.Context) {
	members, err := s.store.ListTeamMembers(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"members": members})
}

func (s *Server) handleGetMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	member, err := s.store.GetTeamMember(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"member": member})
}

func (s *Server) handleCreateMember(c *gin.Context) {
	var req models.TeamMemberInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	member, err := s.store.CreateTeamMember(c.Request.Context(), req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"member": member})
}

func (s *Server) handleUpdateMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.TeamMemberPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	member, err := s.store.UpdateTeamMember(c.Request.Context(), id, req)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"member": member})
}

// handleDeleteMember removes a member; assigned tasks keep the reference.
func (s *Server) handleDeleteMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := s.store.DeleteTeamMember(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleMemberSummary returns the team member card figures.
func (s *Server) handleMemberSummary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	member, err := s.store.GetTeamMember(ctx, id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	summary, err := stats.SummarizeMember(member, tasks)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"summary": summary})
}

// handleTeam returns the team overview and the members matching the
// role/workload query.
func (s *Server) handleTeam(c *gin.Context) {
	band, err := filter.ParseWorkloadBand(c.Query("workload"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	spec := filter.MemberSpec{Role: models.Role(c.Query("role")), Workload: band}

	ctx := c.Request.Context()
	members, err := s.store.ListTeamMembers(ctx)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	selected := filter.Members(members, tasks, spec)
	summaries := make([]stats.MemberSummary, 0, len(selected))
	for _, m := range selected {
		summary, err := stats.SummarizeMember(m, tasks)
		if err != nil {
			s.respondStoreError(c, err)
			return
		}
		summaries = append(summaries, summary)
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"metrics": stats.SummarizeTeam(members, tasks),
		"members": summaries,
	})
}

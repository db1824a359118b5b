package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pmboard/internal/stats"
)

const burndownDays = 14

// handleAnalytics returns the analytics dashboard figures.
func (s *Server) handleAnalytics(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"metrics":  stats.Summarize(tasks, s.now()),
		"byStatus": stats.StatusBreakdown(tasks),
		"byRole":   stats.RoleBreakdown(tasks),
		"burndown": stats.IdealBurndown(burndownDays),
	})
}

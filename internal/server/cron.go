package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCronReconcile(c *gin.Context) {
	stats, err := s.engine.ReconcileAll(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":                  true,
		"organizations":       stats.Organizations,
		"invoicesUpserted":    stats.InvoicesUpserted,
		"subscriptionsSynced": stats.SubscriptionsSynced,
	})
}

func (s *Server) handleCronDunning(c *gin.Context) {
	result, err := s.dunning.Run(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"scanned":  result.Scanned,
		"overdue":  result.Overdue,
		"upcoming": result.Upcoming,
		"sent":     result.Sent,
	})
}

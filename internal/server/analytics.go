package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleAnalyticsAging(c *gin.Context) {
	orgID, ok := s.resolveOrg(c, currentUser(c))
	if !ok {
		return
	}

	rollup, err := s.analytics.Aging(c.Request.Context(), orgID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rollup": rollup})
}

func (s *Server) handleAnalyticsSummary(c *gin.Context) {
	orgID, ok := s.resolveOrg(c, currentUser(c))
	if !ok {
		return
	}

	summary, err := s.analytics.Summary(c.Request.Context(), orgID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"currency": summary.Currency,
		"kpis": gin.H{
			"MRR":             summary.MRR,
			"ARR":             summary.ARR,
			"activeCustomers": summary.ActiveCustomers,
			"ARPA":            summary.ARPA,
			"collectionRate":  summary.CollectionRate,
			"DSO":             summary.DSO,
		},
	})
}

func (s *Server) handleAnalyticsDunning(c *gin.Context) {
	orgID, ok := s.resolveOrg(c, currentUser(c))
	if !ok {
		return
	}

	stats, err := s.analytics.DunningStats(c.Request.Context(), orgID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "last30d": stats})
}

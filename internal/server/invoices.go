package server

import (
	"net/http"
	"strconv"

	invoicedomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleListInvoices(c *gin.Context) {
	orgID, ok := s.resolveOrg(c, currentUser(c))
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	filter := invoicedomain.ListFilter{
		OrgID:  orgID,
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Page: pagination.Request{
			Cursor: c.Query("cursor"),
			Limit:  limit,
		},
	}

	views, rollups, page, err := s.invoices.List(c.Request.Context(), filter)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"data":    views,
		"rollups": rollups,
		"page":    page,
	})
}

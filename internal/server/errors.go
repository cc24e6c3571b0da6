package server

import (
	"errors"
	"net/http"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/auth"
	billingdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/billing/domain"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortWithError maps domain errors to HTTP responses. Unmapped errors are
// internal; their details stay in the logs, not the response body.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, orgdomain.ErrOrganizationNotFound):
		status, message = http.StatusNotFound, "organization not found"
	case errors.Is(err, orgdomain.ErrCustomerRefConflict):
		status, message = http.StatusConflict, "customer reference conflict"
	case errors.Is(err, providerdomain.ErrInvalidSignature):
		status, message = http.StatusBadRequest, "invalid signature"
	case errors.Is(err, billingdomain.ErrPriceNotConfigured):
		status, message = http.StatusInternalServerError, "price not configured"
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

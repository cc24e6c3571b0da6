package server

import (
	"errors"
	"io"
	"net/http"

	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	"github.com/gin-gonic/gin"
)

const sigHeader = "Stripe-Signature"

// maxWebhookBody caps inbound payloads; provider events are small.
const maxWebhookBody = 1 << 20

// handleWebhook acknowledges every delivery this system never wants again with
// a 200, so the provider only retries signature failures and internal errors.
func (s *Server) handleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	outcome, err := s.ingest.IngestEvent(c.Request.Context(), payload, c.GetHeader(sigHeader))
	if err != nil {
		if errors.Is(err, providerdomain.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleDevSync pulls the caller's latest provider state on demand. Registered
// only outside production, for local setups where the provider cannot deliver
// webhooks.
func (s *Server) handleDevSync(c *gin.Context) {
	user := currentUser(c)

	orgID, ok := s.resolveOrg(c, user)
	if !ok {
		return
	}

	if err := s.engine.SyncOrganization(c.Request.Context(), orgID); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "orgId": orgID.String()})
}

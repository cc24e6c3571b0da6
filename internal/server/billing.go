package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/auth"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleCheckout(c *gin.Context) {
	user := currentUser(c)

	orgID, err := snowflake.ParseString(c.Query("orgId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orgId required"})
		return
	}
	if _, ok := user.Membership(orgID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	url, err := s.billing.Checkout(c.Request.Context(), orgID, user.Email)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, url)
}

func (s *Server) handleResume(c *gin.Context) {
	user := currentUser(c)

	orgID, ok := s.resolveOrg(c, user)
	if !ok {
		return
	}
	if !user.IsOwner(orgID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner only"})
		return
	}

	resumed, err := s.billing.Resume(c.Request.Context(), orgID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if !resumed {
		c.JSON(http.StatusOK, gin.H{"ok": true, "note": "no subscription to resume"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// resolveOrg picks the target organization: explicit orgId query when present
// and the user is a member, otherwise the user's first membership.
func (s *Server) resolveOrg(c *gin.Context, user *auth.AuthedUser) (snowflake.ID, bool) {
	if raw := c.Query("orgId"); raw != "" {
		orgID, err := snowflake.ParseString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orgId"})
			return 0, false
		}
		if _, ok := user.Membership(orgID); !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
			return 0, false
		}
		return orgID, true
	}
	if len(user.Memberships) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no organization"})
		return 0, false
	}
	return user.Memberships[0].OrgID, true
}

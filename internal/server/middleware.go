package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	cronKeyHeader  = "X-Cron-Key"
	sessionCookie  = "session"
	userContextKey = "authed_user"
)

// requireCronKey guards scheduler endpoints. With no secret configured the
// endpoints stay closed.
func (s *Server) requireCronKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := s.cfg.CronSecret
		key := c.GetHeader(cronKeyHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// requireSession resolves the bearer token or session cookie and stores the
// user on the request context.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				token = cookie
			}
		}

		user, err := s.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func currentUser(c *gin.Context) *auth.AuthedUser {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*auth.AuthedUser)
	return user
}

package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// accessToken reads the bearer token, falling back to the access token cookie.
func accessToken(c *gin.Context) string {
	if h := c.GetHeader(common.AuthorizationHeader); strings.HasPrefix(h, common.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
	}
	if v, err := c.Cookie(common.AccessTokenCookieName); err == nil {
		return v
	}
	return ""
}

func (s *HTTPServer) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			s.fail(c, common.NewUnauthorizedError("Unauthorized request"))
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.fail(c, common.NewUnauthorizedError("Invalid access token").WithCause(err))
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func (s *HTTPServer) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.fail(c, fmt.Errorf("panic: %v", recovered))
	})
}

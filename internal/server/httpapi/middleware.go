package httpapi

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/logging"
	"github.com/mpodriezov/boardpack/internal/server/auth"
	"github.com/mpodriezov/boardpack/internal/server/services"
)

// Context keys set by the Auth middleware.
const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// RequestLogger logs one line per completed request.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery converts panics into 500 responses instead of killing the server.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"panic", r,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// Auth validates the bearer token and stores the caller's identity on the
// context. EventSource cannot set headers, so the SSE route also accepts the
// token as an access_token query parameter. Expired tokens answer with the
// exact "token expired" message clients key their refresh flow on.
func Auth(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("access_token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": common.ErrorUnauthorized.Error()})
			return
		}

		claims, err := auth.ParseToken(token, secretKey)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": common.ErrTokenExpired.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": common.ErrInvalidToken.Error()})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader(common.AuthorizationHeaderName)
	if strings.HasPrefix(header, common.BearerPrefix) {
		return strings.TrimPrefix(header, common.BearerPrefix)
	}
	return ""
}

// actor reads the authenticated identity the Auth middleware stored.
func actor(c *gin.Context) services.Actor {
	return services.Actor{ID: c.GetString(ctxUserID), Role: c.GetString(ctxRole)}
}

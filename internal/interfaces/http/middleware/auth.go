// Package middleware contains the gin middleware of the HTTP layer.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tilvane/accountd/internal/infrastructure/monitoring"
	"github.com/tilvane/accountd/internal/token"
	"github.com/tilvane/accountd/pkg/constants"
	"github.com/tilvane/accountd/pkg/logger"
)

// Gin context keys set by the auth middleware.
const (
	PrincipalKey = "principal"
	ClaimsKey    = "claims"
)

// Authenticate verifies the bearer token on the request and stores the
// principal and verified claims for downstream handlers.
func Authenticate(verifier *token.Verifier, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := verifier.Verify(c.Request.Context(), token.FromHTTP(c.Request))
		if !result.Authorized {
			metrics.RecordTokenVerification("denied")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "token_invalid",
				"message": "unauthorized",
			})
			return
		}
		metrics.RecordTokenVerification("success")

		c.Set(PrincipalKey, result.Principal)
		c.Set(ClaimsKey, result.Claims)

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyPrincipal, result.Principal)
		ctx = context.WithValue(ctx, constants.ContextKeyClaims, result.Claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccountID returns the caller's account id from the verified claims. The
// id claim is carried by every token minted from a login record.
func AccountID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return "", false
	}
	claims, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	id, ok := claims[constants.ClaimAccountID].(string)
	return id, ok && id != ""
}

// RequestID assigns each request an id, propagated via context and the
// X-Request-ID response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Logger logs one line per request.
func Logger(log logger.Logger) gin.HandlerFunc {
	l := log.WithComponent("http")
	return func(c *gin.Context) {
		c.Next()
		l.Info(c.Request.Context(), "request handled",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
		)
	}
}

// Metrics observes request latency per method and route.
func Metrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := monitoring.NewLatencyTimer(metrics, c.Request.Method, c.FullPath())
		c.Next()
		timer.Observe()
	}
}

// Package http provides the admin authentication and client rate limiting middleware.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authService "github.com/cuenty/fulfillment/internal/auth/service"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	"github.com/cuenty/fulfillment/internal/httputil"
)

// AdminAuthMiddleware admits requests whose "Authorization: Bearer <token>" header
// matches tokenHash, an Argon2id hash produced by the hash-admin-token command.
//
// Error handling:
//   - Empty tokenHash (admin surface disabled) → 401 Unauthorized
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Token that does not match tokenHash → 401 Unauthorized
func AdminAuthMiddleware(
	tokenHash string,
	secretService authService.SecretService,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenHash == "" {
			logger.Debug("authentication failed: admin token not configured")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		const bearerPrefix = "bearer "
		if len(authHeader) <= len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !secretService.CompareSecret(authHeader[len(bearerPrefix):], tokenHash) {
			logger.Debug("authentication failed: token mismatch",
				slog.String("client_ip", c.ClientIP()))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

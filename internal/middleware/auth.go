package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/pkg/models"
)

const (
	ctxClientID = "client_id"
	ctxUserTier = "user_tier"
	ctxAPIKey   = "api_key"
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error)
	ValidateAPIKey(apiKey string) (string, error)
}

// Auth accepts either a JWT issued by /auth/token or a raw API key as the
// bearer credential.
func Auth(authService TokenValidator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "MISSING_AUTHORIZATION", "Authorization header is required")
			return
		}

		// Check for Bearer token format
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		tokenString := tokenParts[1]

		// Check if it's an API key (simple heuristic: no dots means API key)
		if !strings.Contains(tokenString, ".") {
			userTier, err := authService.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				abort(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
				return
			}

			// API key clients may name themselves; otherwise the key is the identity
			clientID := c.GetHeader("X-Client-ID")
			if clientID == "" {
				clientID = "key:" + tokenString
			}

			c.Set(ctxClientID, clientID)
			c.Set(ctxUserTier, userTier)
			c.Set(ctxAPIKey, tokenString)
			c.Next()
			return
		}

		// Handle JWT token authentication
		claims, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ctxClientID, claims.ClientID)
		c.Set(ctxUserTier, claims.UserTier)
		c.Set(ctxAPIKey, claims.APIKey)
		c.Next()
	}
}

// GetClientFromContext returns the authenticated client id and tier.
func GetClientFromContext(c *gin.Context) (clientID, userTier string) {
	return c.GetString(ctxClientID), c.GetString(ctxUserTier)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

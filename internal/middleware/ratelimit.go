package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/pkg/models"
)

type RateLimiter interface {
	Consume(ctx context.Context, clientID, userTier string, cost int) (bool, *models.RateLimitInfo, error)
}

// RouteCosts maps a route pattern, as reported by gin's FullPath, to the
// number of units a call charges. Unlisted routes cost one.
type RouteCosts map[string]int

// RateLimit must run after Auth, which sets the client identity.
func RateLimit(rateLimitService RateLimiter, costs RouteCosts, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, userTier := GetClientFromContext(c)
		if clientID == "" {
			// This should not happen if auth middleware is properly configured
			logger.Error("Rate limit middleware called without client context")
			c.Next()
			return
		}
		if userTier == "" {
			userTier = "free" // Default tier
		}

		cost, ok := costs[c.FullPath()]
		if !ok {
			cost = 1
		}

		allowed, info, err := rateLimitService.Consume(c.Request.Context(), clientID, userTier, cost)
		if err != nil {
			logger.WithError(err).Error("Failed to check rate limit")
			// Continue on error to avoid blocking requests when Redis is down
			c.Next()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			logger.WithFields(logrus.Fields{
				"client_id": clientID,
				"user_tier": userTier,
				"limit":     info.Limit,
				"cost":      cost,
			}).Warn("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded. Please try again later.",
				},
				"rate_limit": info,
			})
			return
		}

		c.Next()
	}
}

package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/temcen/coursehybrid/internal/config"
)

func CORS(cfg *config.Config) gin.HandlerFunc {
	origins := cfg.Security.CORS.AllowedOrigins
	config := cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  cfg.Security.CORS.AllowedMethods,
		AllowHeaders:  cfg.Security.CORS.AllowedHeaders,
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", RequestIDHeader},
	}

	// Credentials cannot be combined with a wildcard origin
	if len(origins) == 1 && origins[0] == "*" {
		config.AllowOrigins = nil
		config.AllowAllOrigins = true
	} else {
		config.AllowCredentials = true
	}

	return cors.New(config)
}

package middleware

import (
	"time"

	"storefront/pkg/constraints"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CorsMiddleware allows credentialed requests from the given origins so a
// browser client sends the refresh cookie cross-origin.
// With no origins configured any origin is reflected.
func CorsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", constraints.HeaderContentType, constraints.HeaderAuthorization, constraints.HeaderRequestID, constraints.HeaderTraceID},
		ExposeHeaders:    []string{constraints.HeaderRequestID, constraints.HeaderTraceID, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

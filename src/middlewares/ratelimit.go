package middlewares

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/santupramanik23/my-guide-backend/src/lib"
)

// RateLimit answers 429 once a client IP goes over the limiter's window budget.
// Limiter errors let the request through.
func RateLimit(limiter *lib.RateLimiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ok, err := limiter.Allow(ctx.Request.Context(), ctx.ClientIP())
		if err != nil {
			log.Printf("[ratelimit] Error counting request: %s\n", err.Error())
		}
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
			return
		}
		ctx.Next()
	}
}

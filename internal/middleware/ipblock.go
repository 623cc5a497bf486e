package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/happypaws/happypaws/internal/repository"
)

const ipCheckTimeout = 2 * time.Second

// IPBlock rejects requests from blocked addresses with 403. Admin routes
// are mounted before this middleware so staff can unblock themselves.
func IPBlock(ips repository.IPRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ipCheckTimeout)
		defer cancel()
		blocked, err := ips.IsBlocked(ctx, ip)
		if err != nil {
			// Fail open: a broken lookup must not take the site down.
			log.Warn().Err(err).Str("ip", ip).Msg("ip block check failed")
			c.Next()
			return
		}
		if blocked {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status": "error",
				"error":  "access denied",
			})
			return
		}
		c.Next()
	}
}

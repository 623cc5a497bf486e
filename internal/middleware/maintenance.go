package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/happypaws/happypaws/internal/service/settings"
)

// Maintenance answers 503 on public routes while the maintenance_mode
// setting is on. Admin routes bypass it so the flag can be turned off.
func Maintenance(settingsSvc *settings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if settingsSvc.MaintenanceMode(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"error":  "site is temporarily down for maintenance",
			})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/happypaws/happypaws/pkg/auth"
)

// ContextIsAdmin is set true once a request has proven admin credentials.
const ContextIsAdmin = "is_admin"

// AdminAuth guards the admin API. Accepted credentials, in order: Basic
// auth against the bcrypt password hash, a JWT from /admin/login, or the
// static shared token. Basic auth wins when both it and the token are
// configured.
func AdminAuth(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifyAdmin(c, authn) {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "admin authentication required",
			})
			return
		}
		c.Set(ContextIsAdmin, true)
		c.Next()
	}
}

// OptionalAdmin sets the admin flag when valid credentials are supplied
// but never rejects. Public endpoints with admin-only behaviours (chat
// replies as "admin") use this.
func OptionalAdmin(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifyAdmin(c, authn) {
			c.Set(ContextIsAdmin, true)
		}
		c.Next()
	}
}

// IsAdmin reports whether the request carries verified admin credentials.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextIsAdmin)
}

func verifyAdmin(c *gin.Context, authn *auth.Authenticator) bool {
	// With no credential configured the admin surface stays reachable.
	// Startup logs this loudly; it is the small-site bootstrap mode.
	if authn.Unprotected() {
		return true
	}

	if _, password, ok := c.Request.BasicAuth(); ok && authn.HasPasswordAuth() {
		return authn.VerifyPassword(password) == nil
	}

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimPrefix(header, "Bearer ")
		if authn.ValidateToken(token) == nil {
			return true
		}
		return authn.VerifyStaticToken(token) == nil
	}

	// Dashboard polling falls back to a token query parameter.
	if token := c.Query("token"); token != "" {
		if authn.ValidateToken(token) == nil {
			return true
		}
		return authn.VerifyStaticToken(token) == nil
	}
	return false
}

package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/middleware"
	"rentdesk/internal/infra/security"
)

// AdminAuth admits requests whose bearer token passes Verifier and marks them as admin.
type AdminAuth struct {
	Verifier security.TokenVerifier
	Logger   *slog.Logger
}

func (m AdminAuth) Handle(c *gin.Context) {
	if m.Verifier == nil {
		denyAdmin(c)
		return
	}
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	if !m.Verifier.Verify(token) {
		if m.Logger != nil {
			m.Logger.Debug("admin token rejected", "path", c.FullPath(), "client_ip", c.ClientIP())
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}
	ctx := middleware.WithPrincipal(c.Request.Context(), middleware.PrincipalAdmin)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func denyAdmin(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin api disabled"})
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

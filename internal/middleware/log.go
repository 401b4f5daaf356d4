package middleware

import (
	"bytes"
	"io"
	"strings"

	"github.com/aalbusoiu/workshop-platform/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditMiddleware records mutating operations of logged-in users.
// Writes are best-effort: an audit failure never fails the request.
func AuditMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// capture the request body for the audit row
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		user := CurrentUser(c)
		if user == nil {
			return
		}
		if c.Request.Method == "GET" {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		// bodies on these routes carry credentials, keep them out of the log
		sensitive := strings.Contains(path, "/auth/") ||
			strings.Contains(path, "/leave") ||
			strings.Contains(path, "/profiles")
		if !sensitive && len(bodyBytes) > 0 && len(bodyBytes) < 1000 {
			action += " " + string(bodyBytes)
		}

		log := models.AuditLog{
			UserID:    &user.ID,
			Method:    c.Request.Method,
			Path:      path,
			Action:    action,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		_ = db.Create(&log).Error
	}
}

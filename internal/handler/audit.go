package handler

import (
	"net/http"
	"strconv"

	"github.com/aalbusoiu/workshop-platform/internal/models"
	"github.com/aalbusoiu/workshop-platform/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditHandler lists audit log entries (admin only).
type AuditHandler struct {
	DB *gorm.DB
}

func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{DB: db}
}

// ListLogs returns audit entries, newest first, paged by ?page=N.
func (h *AuditHandler) ListLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	const pageSize = 50

	var logs []models.AuditLog
	if err := h.DB.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query logs failed")
		return
	}

	out := make([]gin.H, 0, len(logs))
	for _, l := range logs {
		out = append(out, gin.H{
			"id":         l.ID,
			"user_id":    l.UserID,
			"method":     l.Method,
			"path":       l.Path,
			"action":     l.Action,
			"ip":         l.IP,
			"created_at": l.CreatedAt,
		})
	}
	util.Success(c, util.Response{"logs": out, "page": page})
}

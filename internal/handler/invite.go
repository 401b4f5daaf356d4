package handler

import (
	"net/http"
	"time"

	"github.com/aalbusoiu/workshop-platform/internal/middleware"
	"github.com/aalbusoiu/workshop-platform/internal/models"
	"github.com/aalbusoiu/workshop-platform/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InviteHandler issues registration invitations (admin only).
type InviteHandler struct {
	DB          *gorm.DB
	ExpireHours int
}

func NewInviteHandler(db *gorm.DB, expireHours int) *InviteHandler {
	if expireHours <= 0 {
		expireHours = 72
	}
	return &InviteHandler{DB: db, ExpireHours: expireHours}
}

type createInviteReq struct {
	Email string `json:"email" binding:"max=255"`
	Role  string `json:"role"`
}

// CreateInvitation mints a single-use invitation code.
func (h *InviteHandler) CreateInvitation(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req createInviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleFacilitator
	}
	if req.Role != models.RoleFacilitator && req.Role != models.RoleAdmin {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown role")
		return
	}

	invite := models.Invitation{
		Code:        uuid.New().String(),
		Email:       req.Email,
		Role:        req.Role,
		CreatedByID: user.ID,
		ExpiresAt:   time.Now().Add(time.Duration(h.ExpireHours) * time.Hour),
	}
	if err := h.DB.Create(&invite).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create invitation failed")
		return
	}

	util.Created(c, util.Response{
		"invitation": gin.H{
			"code":       invite.Code,
			"role":       invite.Role,
			"email":      invite.Email,
			"expires_at": invite.ExpiresAt,
		},
	})
}

// ListInvitations returns invitations issued so far, newest first.
func (h *InviteHandler) ListInvitations(c *gin.Context) {
	var invites []models.Invitation
	if err := h.DB.Order("created_at DESC").Limit(100).Find(&invites).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query invitations failed")
		return
	}

	out := make([]gin.H, 0, len(invites))
	for _, inv := range invites {
		out = append(out, gin.H{
			"code":       inv.Code,
			"role":       inv.Role,
			"email":      inv.Email,
			"expires_at": inv.ExpiresAt,
			"used_at":    inv.UsedAt,
		})
	}
	util.Success(c, util.Response{"invitations": out})
}

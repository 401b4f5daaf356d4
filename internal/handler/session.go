package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aalbusoiu/workshop-platform/internal/middleware"
	"github.com/aalbusoiu/workshop-platform/internal/session"
	"github.com/aalbusoiu/workshop-platform/internal/util"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the session lifecycle over HTTP.
type SessionHandler struct {
	Engine *session.Engine
}

func NewSessionHandler(engine *session.Engine) *SessionHandler {
	return &SessionHandler{Engine: engine}
}

// respondEngineError maps engine sentinels to HTTP statuses.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case errors.Is(err, session.ErrNotAccepting),
		errors.Is(err, session.ErrSessionFull),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrIllegalTransition),
		errors.Is(err, session.ErrTerminalState),
		errors.Is(err, session.ErrForbidden):
		util.Error(c, http.StatusForbidden, util.CodeForbidden, err.Error())
	case errors.Is(err, session.ErrCodeExhausted):
		util.Error(c, http.StatusConflict, util.CodeConflict, err.Error())
	case errors.Is(err, session.ErrValidation):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
	}
}

func sessionIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid session id")
		return 0, false
	}
	return uint(id), true
}

// ---------- create ----------

type createSessionReq struct {
	MaxParticipants int `json:"max_participants"`
}

// CreateSession opens a new LOBBY session owned by the caller.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	s, err := h.Engine.CreateSession(user.ID, req.MaxParticipants)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	util.Created(c, util.Response{
		"session": gin.H{
			"id":               s.ID,
			"code":             s.Code,
			"status":           s.Status,
			"max_participants": s.MaxParticipants,
			"created_at":       s.CreatedAt,
		},
	})
}

// ---------- join ----------

type joinReq struct {
	Code        string `json:"code" binding:"required"`
	ColorHex    string `json:"color_hex" binding:"required"`
	DisplayName string `json:"display_name"`
}

// Join admits a participant by session code. No login required; the
// response carries the one-time participant credential.
func (h *SessionHandler) Join(c *gin.Context) {
	var req joinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	res, err := h.Engine.JoinByCode(session.JoinRequest{
		Code:        req.Code,
		ColorHex:    req.ColorHex,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	util.Success(c, util.Response{
		"participant_id": res.ParticipantID,
		"session_id":     res.SessionID,
		"token":          res.RawToken,
		"expires_at":     res.ExpiresAt,
	})
}

// ---------- details / participants ----------

// GetSession returns the session summary with its live participant count.
func (h *SessionHandler) GetSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	d, err := h.Engine.GetDetails(id, user.ID, user.Role)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	util.Success(c, util.Response{
		"session": gin.H{
			"id":                d.Session.ID,
			"code":              d.Session.Code,
			"status":            d.Session.Status,
			"max_participants":  d.Session.MaxParticipants,
			"participant_count": d.ParticipantCount,
			"profile_count":     d.ProfileCount,
			"created_at":        d.Session.CreatedAt,
		},
	})
}

// ListParticipants returns the participants of a session in join order.
func (h *SessionHandler) ListParticipants(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	list, err := h.Engine.GetParticipants(id, user.ID, user.Role)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, p := range list {
		out = append(out, gin.H{
			"id":           p.ID,
			"display_name": p.DisplayName,
			"color_hex":    p.ColorHex,
			"joined_at":    p.JoinedAt,
		})
	}
	util.Success(c, util.Response{"participants": out})
}

// ---------- status ----------

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus applies a lifecycle transition on the caller's session.
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	s, err := h.Engine.UpdateStatus(id, user.ID, req.Status)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	util.Success(c, util.Response{
		"session": gin.H{
			"id":     s.ID,
			"status": s.Status,
			"code":   s.Code,
		},
	})
}

// ---------- leave ----------

type leaveReq struct {
	Token string `json:"token" binding:"required"`
}

// Leave removes the caller's participant using the credential issued at
// join time.
func (h *SessionHandler) Leave(c *gin.Context) {
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req leaveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing token")
		return
	}

	if err := h.Engine.Leave(id, req.Token); err != nil {
		respondEngineError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "left session"})
}

// ---------- delete / abandon ----------

// DeleteSession deletes a LOBBY session outright or abandons a RUNNING
// one, per the lifecycle rules.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.Engine.DeleteOrAbandon(id, user.ID); err != nil {
		respondEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- profiles ----------

type submitProfileReq struct {
	Token   string `json:"token" binding:"required"`
	Content string `json:"content" binding:"required,max=4096"`
}

// SubmitProfile stores a profile draft authored by a participant.
func (h *SessionHandler) SubmitProfile(c *gin.Context) {
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req submitProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	p, err := h.Engine.SubmitProfile(id, req.Token, req.Content)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	util.Created(c, util.Response{
		"profile": gin.H{
			"id":        p.ID,
			"color_hex": p.ColorHex,
			"draft":     p.Draft,
		},
	})
}

package router

import (
	"github.com/aalbusoiu/workshop-platform/internal/config"
	"github.com/aalbusoiu/workshop-platform/internal/handler"
	"github.com/aalbusoiu/workshop-platform/internal/middleware"
	"github.com/aalbusoiu/workshop-platform/internal/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and the API surface.
func SetupRouter(cfg *config.Config, db *gorm.DB, engine *session.Engine) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret

	// public: registration, login, join, participant-token routes
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	sessionHandler := handler.NewSessionHandler(engine)
	api.POST("/sessions/join", sessionHandler.Join)
	api.POST("/sessions/:id/leave", sessionHandler.Leave)
	api.POST("/sessions/:id/profiles", sessionHandler.SubmitProfile)

	// authenticated routes
	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/me", handler.GetMe)

	protected.POST("/sessions", sessionHandler.CreateSession)
	protected.GET("/sessions/:id", sessionHandler.GetSession)
	protected.PATCH("/sessions/:id/status", sessionHandler.UpdateStatus)
	protected.GET("/sessions/:id/participants", sessionHandler.ListParticipants)
	protected.DELETE("/sessions/:id", sessionHandler.DeleteSession)

	exportHandler := handler.NewExportHandler(engine)
	protected.GET("/sessions/:id/export/csv", exportHandler.ExportCSV)
	protected.GET("/sessions/:id/export/xlsx", exportHandler.ExportXLSX)

	// admin-only routes
	admin := protected.Group("")
	admin.Use(middleware.RequireAdmin())

	inviteHandler := handler.NewInviteHandler(db, cfg.Invite.ExpireHours)
	admin.POST("/invitations", inviteHandler.CreateInvitation)
	admin.GET("/invitations", inviteHandler.ListInvitations)

	auditHandler := handler.NewAuditHandler(db)
	admin.GET("/audit", auditHandler.ListLogs)

	return r
}

package routes

import (
	"time"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/domain/attachment"
	"github.com/echomail/echomail/domain/campaign"
	"github.com/echomail/echomail/domain/contact"
	"github.com/echomail/echomail/domain/health"
	"github.com/echomail/echomail/domain/template"
	"github.com/echomail/echomail/domain/tracking"
	"github.com/echomail/echomail/domain/user"
	"github.com/echomail/echomail/domain/webhook"
	"github.com/echomail/echomail/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health probes
	e.GET("/health", health.ReadinessHandler)
	e.GET("/health/live", health.LivenessHandler)
	e.GET("/health/ready", health.ReadinessHandler)
	e.GET("/health/stats", health.StatsHandler, middleware.JWTMiddleware)

	// Auth. Login is the only unauthenticated mutating endpoint, so it
	// gets the IP rate limiter.
	loginLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		MaxRequests:   10,
		Window:        time.Minute,
		BlockDuration: 15 * time.Minute,
		DB:            config.DB.DB,
	})
	e.POST("/login", user.LoginHandler, loginLimiter)
	e.POST("/logout", user.LogoutHandler, middleware.JWTMiddleware)

	userGroup := e.Group("/user", middleware.JWTMiddleware)
	userGroup.GET("/me", user.GetUserMeHandler)
	userGroup.PUT("/change_password", user.ChangePasswordHandler)
	userGroup.PUT("/google_token", user.UpdateGmailTokenHandler)

	// Tracking redirects are hit from recipients' mail clients, so they
	// carry no auth.
	e.GET("/track-click", tracking.TrackClickHandler)
	e.GET("/track-open", tracking.TrackOpenHandler)

	api := e.Group("/api", middleware.JWTMiddleware)

	api.POST("/send-email", campaign.SendEmailHandler)
	api.GET("/campaigns", campaign.ListCampaignsHandler)
	api.GET("/campaigns/:id", campaign.GetCampaignHandler)
	api.DELETE("/campaigns/:id", campaign.DeleteCampaignHandler)
	api.GET("/campaigns/:ref/events", tracking.ListEventsHandler)

	api.POST("/uploads", attachment.UploadAttachmentsHandler)

	api.GET("/contacts", contact.ListContactsHandler)
	api.POST("/contacts", contact.CreateContactHandler)
	api.DELETE("/contacts/:id", contact.DeleteContactHandler)
	api.POST("/contacts/import", contact.ImportContactsHandler)

	api.GET("/templates", template.ListTemplatesHandler)
	api.GET("/templates/:id", template.GetTemplateHandler)
	api.POST("/templates", template.CreateTemplateHandler)
	api.PUT("/templates/:id", template.UpdateTemplateHandler)
	api.DELETE("/templates/:id", template.DeleteTemplateHandler)

	api.GET("/webhooks", webhook.ListWebhooksHandler)
	api.POST("/webhooks", webhook.CreateWebhookHandler)
	api.DELETE("/webhooks/:id", webhook.DeleteWebhookHandler)
	api.POST("/webhooks/:id/test", webhook.TestWebhookHandler)
}

package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/handler"
	internalmiddleware "github.com/noah-isme/bk-portal-api/internal/middleware"
	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/internal/service"
	"github.com/noah-isme/bk-portal-api/pkg/config"
	"github.com/noah-isme/bk-portal-api/pkg/logger"
	"github.com/noah-isme/bk-portal-api/pkg/response"
	corsmiddleware "github.com/noah-isme/bk-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bk-portal-api/pkg/middleware/requestid"
)

const functionsPrefix = "/functions/"

type routeDeps struct {
	tokens     internalmiddleware.TokenValidator
	audit      internalmiddleware.AuditWriter
	metricsSvc *service.MetricsService

	auth       *handler.AuthHandler
	profile    *handler.ProfileHandler
	accounts   *handler.AccountHandler
	deleteUser *handler.DeleteUserFunction
	articles   *handler.ArticleHandler
	info       *handler.InfoHandler
	materials  *handler.MaterialHandler
	settings   *handler.SettingHandler
	dashboard  *handler.DashboardHandler
	files      *handler.FileHandler
	metrics    *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, logr *zap.Logger, d routeDeps) {
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	// The delete function answers its own preflight with a wildcard origin.
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, functionsPrefix))
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(d.metricsSvc))
		r.GET("/metrics", d.metrics.Prometheus)
	}

	r.GET("/health", d.metrics.Health)
	r.GET("/ready", d.metrics.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.Any(functionsPrefix+"v1/delete-user", d.deleteUser.Handle)
	if d.files != nil {
		r.GET("/files/:bucket/*path", d.files.Serve)
	}

	requireAuth := internalmiddleware.JWT(d.tokens)
	staff := internalmiddleware.RequireStaff()
	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.Use(response.TrackMeta())

	auth := api.Group("/auth")
	auth.POST("/signup", d.auth.SignUp)
	auth.POST("/login", d.auth.Login)
	auth.POST("/refresh", d.auth.Refresh)
	auth.POST("/forgot-password", d.auth.ForgotPassword)
	auth.POST("/reset-password", d.auth.ResetPassword)
	auth.POST("/logout", requireAuth, d.auth.Logout)
	auth.POST("/change-password", requireAuth, d.auth.ChangePassword)
	auth.GET("/me", requireAuth, d.auth.Me)

	me := api.Group("/me", requireAuth)
	me.GET("/profile", d.profile.Get)
	me.PUT("/profile", d.profile.Update)
	me.PATCH("/notifications", d.profile.UpdateNotifications)

	api.GET("/home", d.dashboard.Home)
	api.GET("/settings", d.settings.ListPublic)
	api.GET("/consultation", d.settings.Consultation)
	api.GET("/articles", d.articles.ListPublic)
	api.GET("/articles/:id", d.articles.GetPublic)
	api.GET("/info", d.info.ListPublic)
	api.GET("/info/:id", d.info.GetPublic)
	api.GET("/materials", d.materials.ListPublic)
	api.GET("/materials/:id", d.materials.GetPublic)
	api.GET("/materials/:id/download", requireAuth, d.materials.Download)

	accounts := api.Group("/accounts", requireAuth, staff)
	accounts.GET("", d.accounts.List)
	accounts.GET("/kpis", d.accounts.KPIs)
	accounts.GET("/count", d.accounts.Count)
	accounts.GET("/export", adminOnly, internalmiddleware.Audit(d.audit, models.AuditActionAccountExport, "profiles"), d.accounts.Export)
	accounts.GET("/:id", d.accounts.Get)
	accounts.PATCH("/:id/role", adminOnly, d.accounts.UpdateRole)

	api.GET("/dashboard", requireAuth, staff, d.dashboard.Admin)
	api.GET("/metrics/summary", requireAuth, adminOnly, d.metrics.Summary)

	admin := api.Group("/admin", requireAuth, staff)
	admin.GET("/articles", d.articles.ListAdmin)
	admin.POST("/articles", d.articles.Create)
	admin.GET("/articles/:id", d.articles.Get)
	admin.PUT("/articles/:id", d.articles.Update)
	admin.DELETE("/articles/:id", d.articles.Delete)

	admin.GET("/info", d.info.ListAdmin)
	admin.POST("/info", d.info.Create)
	admin.GET("/info/:id", d.info.Get)
	admin.PUT("/info/:id", d.info.Update)
	admin.DELETE("/info/:id", d.info.Delete)

	admin.GET("/materials", d.materials.ListAdmin)
	admin.POST("/materials", d.materials.Create)
	admin.GET("/materials/:id", d.materials.Get)
	admin.PUT("/materials/:id", d.materials.Update)
	admin.DELETE("/materials/:id", d.materials.Delete)

	admin.GET("/settings", d.settings.List)
	admin.PUT("/settings", d.settings.BulkUpsert)
}

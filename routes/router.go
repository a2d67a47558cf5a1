package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/config"
	"github.com/NIN31/hdattendance/controllers"
	"github.com/NIN31/hdattendance/middleware"
	"github.com/NIN31/hdattendance/services"
	"github.com/NIN31/hdattendance/templates"
	"github.com/NIN31/hdattendance/utils"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Config      config.AppConfig
	Location    *time.Location
	Gate        *services.AccessGate
	Submissions *services.SubmissionService
	Store       *services.RecordStore
	Auth        *services.AdminAuth
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Logger.Warn("gin access log disabled", zap.Error(err))
		} else {
			accessLog = gl
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RequestMetrics())

	if len(cfg.AllowedOrigins) > 0 {
		corsCfg := cors.Config{
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
		if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
			corsCfg.AllowAllOrigins = true
			corsCfg.AllowCredentials = false
		} else {
			corsCfg.AllowOrigins = cfg.AllowedOrigins
		}
		r.Use(cors.New(corsCfg))
	}

	tmpl, err := templates.Load()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	// the admin cookie is optional here; submissions use it for the restriction reset
	r.Use(middleware.LoadAdminSession(deps.Auth))

	attendance := controllers.NewAttendanceController(deps.Submissions, deps.Gate, deps.Auth, cfg.CooldownWindow(), deps.Location)
	auth := controllers.NewAuthController(deps.Auth)
	admin := controllers.NewAdminController(deps.Store, deps.Auth, deps.Location)
	stats := controllers.NewStatsController(deps.Store, deps.Location)

	r.GET("/", attendance.Index)
	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	limited := r.Group("", limiter.Middleware())
	limited.GET("/scan", attendance.ScanForm)
	limited.POST("/scan", attendance.Scan)
	limited.POST("/submit", attendance.Submit)
	limited.GET("/login", auth.LoginForm)
	limited.POST("/login", auth.Login)

	r.GET("/logout", auth.Logout)

	protected := r.Group("", middleware.AdminRequired())
	protected.GET("/admin", admin.List)
	protected.GET("/export", admin.Export)
	protected.POST("/reset", admin.Reset)
	protected.POST("/delete_selected", admin.DeleteSelected)
	protected.POST("/delete_entry", admin.DeleteEntry)
	protected.POST("/reset_restriction", admin.ResetRestriction)
	protected.POST("/clear_restriction", admin.ClearRestriction)
	protected.GET("/stats", stats.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r, nil
}

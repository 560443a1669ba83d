package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/infra/config"
	"rentdesk/internal/infra/obs"
)

type PropertyHTTP interface {
	Get(c *gin.Context)
	Quote(c *gin.Context)
	Calendar(c *gin.Context)
	UpdateOverrides(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Recompute(c *gin.Context)
	RecomputeAll(c *gin.Context)
	Lease(c *gin.Context)
	Cancel(c *gin.Context)
}

type Handlers struct {
	Property     PropertyHTTP
	Booking      BookingHTTP
	Admin        gin.HandlerFunc
	QuoteLimiter gin.HandlerFunc
	Metrics      http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	admin := h.Admin
	if admin == nil {
		admin = denyAdmin
	}
	limiter := h.QuoteLimiter
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api/v1")
	adminGroup := api.Group("/admin", admin)
	if h.Property != nil {
		api.GET("/properties/:id", h.Property.Get)
		api.GET("/properties/:id/quote", limiter, h.Property.Quote)
		api.GET("/properties/:id/calendar", h.Property.Calendar)
		adminGroup.PUT("/properties/:id/overrides", h.Property.UpdateOverrides)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		adminGroup.POST("/bookings/recompute", h.Booking.RecomputeAll)
		adminGroup.POST("/bookings/:id/recompute", h.Booking.Recompute)
		adminGroup.POST("/bookings/:id/lease", h.Booking.Lease)
		adminGroup.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer-web/internal/services/health"
	"resume-analyzer-web/internal/shared/config"
	"resume-analyzer-web/internal/shared/metrics"
	"resume-analyzer-web/internal/shared/server/middleware"
	"resume-analyzer-web/internal/shared/server/respond"
	"resume-analyzer-web/internal/web"
)

// RouterDeps holds dependencies for wiring routes.
type RouterDeps struct {
	Config  config.Config
	Web     *web.Handler
	Health  *health.Service
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = deps.Config.MaxUploadBytes + 1<<20

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	r.GET("/metrics", metrics.Handler())

	if deps.Web != nil {
		// Health checks and scrapers above never get a session.
		pages := r.Group("/",
			middleware.Session(middleware.SessionOptions{
				MaxAge:  deps.Config.SessionTTL,
				Secure:  deps.Config.Env == "production",
				Limiter: deps.Limiter,
				NewSessionRule: middleware.RateLimitRule{
					Rate:  deps.Config.SessionRateLimitRPS,
					Burst: deps.Config.SessionRateLimitBurst,
				},
			}),
			pageRateLimit(deps),
		)
		deps.Web.RegisterRoutes(pages)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Route not found", nil)
	})

	return r
}

// pageRateLimit limits analyze requests and page polling per session.
func pageRateLimit(deps RouterDeps) gin.HandlerFunc {
	cfg := deps.Config
	return middleware.RateLimit(middleware.RateLimitConfig{
		GroupFor: rateGroup,
		Limiter:  deps.Limiter,
		Rules: map[string]middleware.RateLimitRule{
			middleware.GroupAnalyze: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			middleware.GroupPolling: {Rate: cfg.PollRateLimitRPS, Burst: cfg.PollRateLimitBurst},
		},
	})
}

func rateGroup(c *gin.Context) string {
	switch c.Request.Method + " " + c.FullPath() {
	case "POST /analyze":
		return middleware.GroupAnalyze
	case "GET /", "GET /api/state":
		return middleware.GroupPolling
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

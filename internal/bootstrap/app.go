package bootstrap

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer-web/internal/analysis"
	"resume-analyzer-web/internal/services/health"
	"resume-analyzer-web/internal/shared/config"
	"resume-analyzer-web/internal/shared/server"
	"resume-analyzer-web/internal/shared/server/middleware"
	"resume-analyzer-web/internal/shared/storage/object/memory"
	"resume-analyzer-web/internal/skillcloud"
	"resume-analyzer-web/internal/upload"
	"resume-analyzer-web/internal/view"
	"resume-analyzer-web/internal/web"
)

const backgroundTimeout = 30 * time.Second

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	Analyzer *analysis.Client
	Blobs    *memory.Store
	Views    *view.Factory
	Sessions *web.Registry
	Handler  *web.Handler
	Limiter  *middleware.RateLimiter
}

// Options overrides collaborators in tests.
type Options struct {
	// Analyzer replaces the HTTP analysis client.
	Analyzer upload.Analyzer
	HTTPClient *http.Client
	Now        func() time.Time
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config, opts ...Options) (*App, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if strings.TrimSpace(cfg.AnalyzeEndpoint) == "" {
		return nil, fmt.Errorf("analyze endpoint is required")
	}

	app := &App{
		Config:   cfg,
		Analyzer: analysis.NewClient(cfg.AnalyzeEndpoint, cfg.AnalyzeField, o.HTTPClient),
		Blobs:    memory.New(),
	}

	var analyzer upload.Analyzer = app.Analyzer
	if o.Analyzer != nil {
		analyzer = o.Analyzer
	}

	bgClient := o.HTTPClient
	if bgClient == nil {
		bgClient = &http.Client{Timeout: backgroundTimeout}
	}

	app.Views = view.NewFactory(view.Deps{
		Analyzer:          analyzer,
		SettleDelay:       cfg.SettleDelay,
		Store:             app.Blobs,
		BackgroundURL:     cfg.BackgroundURL,
		BackgroundEnabled: cfg.BackgroundEnabled,
		BackgroundClient:  bgClient,
		Layouter:          skillcloud.NewLayouter(nil),
		Animation:         skillcloud.DefaultAnimation(),
	})
	app.Limiter = middleware.NewRateLimiter(o.Now)
	app.Sessions = web.NewRegistry(app.Views, web.RegistryOptions{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Now:         o.Now,
		OnRelease:   app.Limiter.Forget,
	})
	app.Handler = web.NewHandler(app.Sessions, app.Blobs, cfg.MaxUploadBytes)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:  cfg,
		Web:     app.Handler,
		Health:  health.NewService(app.Sessions.Len),
		Limiter: app.Limiter,
	})

	return app, nil
}

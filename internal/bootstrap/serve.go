package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"resume-analyzer-web/internal/shared/server"
	"resume-analyzer-web/internal/shared/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP server, the session janitor and rate bucket pruning until
// ctx is done, then shuts down and closes every session.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              server.Addr(a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		telemetry.Info("server.start", map[string]any{
			"addr":             srv.Addr,
			"env":              a.Config.Env,
			"analyze_endpoint": a.Analyzer.Endpoint(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.Sessions.Run(gCtx)
	})
	g.Go(func() error {
		return a.Limiter.Run(gCtx, a.Config.SessionTTL)
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		a.Sessions.Close()
		telemetry.Info("server.stopped", map[string]any{"addr": srv.Addr})
		return err
	})
	return g.Wait()
}

// Package view composes one ResumeAnalyzerView: a background loader, an upload
// controller and a skills cloud, all owned by a single session.
package view

import (
	"context"
	"net/http"
	"sync"
	"time"

	"resume-analyzer-web/internal/background"
	"resume-analyzer-web/internal/render"
	"resume-analyzer-web/internal/shared/metrics"
	"resume-analyzer-web/internal/shared/storage/object"
	"resume-analyzer-web/internal/shared/telemetry"
	"resume-analyzer-web/internal/skillcloud"
	"resume-analyzer-web/internal/upload"
)

// Deps are the collaborators shared by every view of a process.
type Deps struct {
	Analyzer    upload.Analyzer
	SettleDelay time.Duration

	// Store keeps background images. A nil Store disables the background.
	Store             object.ObjectStore
	BackgroundURL     string
	BackgroundEnabled bool
	BackgroundClient  *http.Client

	// Layouter is shared so identical skill lists reuse one layout.
	Layouter *skillcloud.Layouter
	// Animation is copied into each view's visualization.
	Animation skillcloud.Animation
}

// Factory creates views from shared Deps.
type Factory struct {
	deps Deps
}

// NewFactory fills zero-valued Deps with defaults.
func NewFactory(deps Deps) *Factory {
	if deps.Layouter == nil {
		deps.Layouter = skillcloud.NewLayouter(nil)
	}
	if deps.Animation == (skillcloud.Animation{}) {
		deps.Animation = skillcloud.DefaultAnimation()
	}
	return &Factory{deps: deps}
}

// New builds an unmounted view identified by id.
func (f *Factory) New(id string) *View {
	v := &View{
		id:      id,
		created: time.Now(),
		upload: upload.NewController(f.deps.Analyzer, upload.Options{
			SettleDelay: f.deps.SettleDelay,
			ID:          id,
		}),
		cloud: skillcloud.New(f.deps.Layouter, f.deps.Animation),
	}
	if f.deps.BackgroundEnabled && f.deps.Store != nil && f.deps.BackgroundURL != "" {
		v.background = background.NewLoader(f.deps.BackgroundURL, f.deps.Store, id, f.deps.BackgroundClient)
	}
	return v
}

// View is one analyzer screen. Its parts share no mutable state.
type View struct {
	id      string
	created time.Time

	upload     *upload.Controller
	background *background.Loader
	cloud      *skillcloud.Visualization

	mountOnce        sync.Once
	closeOnce        sync.Once
	cancelBackground context.CancelFunc
}

// ID returns the owning session id.
func (v *View) ID() string { return v.id }

// Upload returns the upload controller.
func (v *View) Upload() *upload.Controller { return v.upload }

// Mount starts the background fetch without waiting for it. The fetch is
// canceled by ctx or by Close, whichever comes first.
func (v *View) Mount(ctx context.Context) {
	v.mountOnce.Do(func() {
		metrics.AddSessions(1)
		if v.background != nil {
			bgCtx, cancel := context.WithCancel(ctx)
			v.cancelBackground = cancel
			v.background.Start(bgCtx)
		}
	})
}

// Background returns the fetched background image, if any.
func (v *View) Background() (background.Image, bool) {
	if v.background == nil {
		return background.Image{}, false
	}
	return v.background.Image()
}

// WaitBackground blocks until a started background fetch has settled.
func (v *View) WaitBackground() {
	if v.background != nil {
		v.background.Wait()
	}
}

// Rendered returns the view tree of the current result, or nil.
func (v *View) Rendered() *render.View {
	return render.Build(v.upload.State().Result)
}

// Scene returns the skills cloud for the current result. It is nil until a
// result with skills is present.
func (v *View) Scene() *skillcloud.Scene {
	rv := v.Rendered()
	if rv == nil {
		return nil
	}
	return v.cloud.Mount(rv.SkillsCloud)
}

// Close cancels in-flight work and releases the background image.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		v.upload.Close()
		mounted := true
		v.mountOnce.Do(func() { mounted = false })
		if v.cancelBackground != nil {
			v.cancelBackground()
		}
		if v.background != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			v.background.Wait()
			v.background.Release(ctx)
			cancel()
		}
		if mounted {
			metrics.AddSessions(-1)
		}
		telemetry.Info("view.closed", map[string]any{
			"view_id":  v.id,
			"lifetime": time.Since(v.created).String(),
		})
	})
}

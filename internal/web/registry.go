package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"resume-analyzer-web/internal/shared/telemetry"
	"resume-analyzer-web/internal/view"
)

const minJanitorInterval = time.Second

var (
	// ErrRegistryClosed is returned by Get after Close.
	ErrRegistryClosed = errors.New("session registry closed")
	// ErrRegistryFull is returned by Get when a new session would exceed MaxSessions.
	ErrRegistryFull = errors.New("too many sessions")
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// TTL is how long a session may stay idle before Expire closes it.
	TTL time.Duration
	// MaxSessions caps live sessions; zero means unlimited.
	MaxSessions int
	Now         func() time.Time
	// OnRelease runs after a session is expired or closed.
	OnRelease func(id string)
}

// Registry maps session ids to views and expires idle ones.
type Registry struct {
	factory *view.Factory
	opts    RegistryOptions

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

type session struct {
	view     *view.View
	lastSeen time.Time
}

// NewRegistry constructs a Registry.
func NewRegistry(factory *view.Factory, opts RegistryOptions) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		factory:  factory,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// Get returns the view for id, creating and mounting it on first use.
func (r *Registry) Get(id string) (*view.View, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.opts.Now()
		r.mu.Unlock()
		return s.view, nil
	}
	if r.opts.MaxSessions > 0 && len(r.sessions) >= r.opts.MaxSessions {
		r.mu.Unlock()
		telemetry.Warn("session.rejected", map[string]any{"session_id": id, "max": r.opts.MaxSessions})
		return nil, ErrRegistryFull
	}
	v := r.factory.New(id)
	r.sessions[id] = &session{view: v, lastSeen: r.opts.Now()}
	r.mu.Unlock()

	v.Mount(context.Background())
	telemetry.Info("session.started", map[string]any{"session_id": id})
	return v, nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Expire closes sessions idle for longer than the TTL and returns how many.
func (r *Registry) Expire() int {
	cutoff := r.opts.Now().Add(-r.opts.TTL)

	r.mu.Lock()
	var stale []*view.View
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, s.view)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, v := range stale {
		telemetry.Warn("session.expired", map[string]any{"session_id": v.ID()})
		r.release(v)
	}
	return len(stale)
}

// Run expires sessions periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	interval := r.opts.TTL / 4
	if interval < minJanitorInterval {
		interval = minJanitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Expire()
		}
	}
}

// Close closes every view. Later Get calls return ErrRegistryClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	views := make([]*view.View, 0, len(r.sessions))
	for _, s := range r.sessions {
		views = append(views, s.view)
	}
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	for _, v := range views {
		r.release(v)
	}
}

func (r *Registry) release(v *view.View) {
	v.Close()
	if r.opts.OnRelease != nil {
		r.opts.OnRelease(v.ID())
	}
}

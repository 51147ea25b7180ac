// Package upload owns the upload state of one analyzer view: the selected
// file, the in-flight flag, and the last result or error.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"resume-analyzer-web/internal/analysis"
	"resume-analyzer-web/internal/fileref"
	"resume-analyzer-web/internal/shared/metrics"
	"resume-analyzer-web/internal/shared/telemetry"
)

// DefaultSettleDelay paces the display of a successful result. It is applied
// after every successful response, however fast.
const DefaultSettleDelay = time.Second

var (
	// ErrAnalyzeDisabled is returned when analyze is called while the action is disabled.
	ErrAnalyzeDisabled = errors.New("analyze is disabled")
	// ErrNoFile means no file has been selected.
	ErrNoFile = fmt.Errorf("%w: no file selected", ErrAnalyzeDisabled)
	// ErrInFlight means a request is already running.
	ErrInFlight = fmt.Errorf("%w: request in flight", ErrAnalyzeDisabled)
	// ErrClosed means the controller has been torn down.
	ErrClosed = errors.New("upload controller closed")
)

// Analyzer sends a file to the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, up analysis.Upload) (*analysis.Result, error)
}

// Options configures a Controller.
type Options struct {
	// SettleDelay is waited after a successful response. Zero disables it.
	SettleDelay time.Duration
	// ID labels log lines, typically the session id.
	ID string
	// Sleep replaces the delay implementation in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Controller holds one UploadState and mutates it only through SelectFile,
// Analyze/Start and Close.
type Controller struct {
	analyzer    Analyzer
	settleDelay time.Duration
	id          string
	sleep       func(ctx context.Context, d time.Duration) error

	lifetime context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	mu        sync.Mutex
	state     State
	closed    bool
	observers []func(State)
}

// NewController constructs a Controller bound to its own lifetime context.
func NewController(a Analyzer, opts Options) *Controller {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	lifetime, cancel := context.WithCancel(context.Background())
	return &Controller{
		analyzer:    a,
		settleDelay: opts.SettleDelay,
		id:          opts.ID,
		sleep:       sleep,
		lifetime:    lifetime,
		cancel:      cancel,
	}
}

// OnChange registers fn to receive a snapshot after every state change.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CanAnalyze reports whether Analyze would start a request.
func (c *Controller) CanAnalyze() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.state.CanAnalyze()
}

// SelectFile replaces the selected file. No validation is performed.
func (c *Controller) SelectFile(ref *fileref.Ref) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.File = ref
	snap, observers := c.state, c.observers
	c.mu.Unlock()

	if ref != nil {
		telemetry.Info("upload.file_selected", map[string]any{
			"view_id": c.id,
			"file":    ref.Summary(),
		})
	}
	notify(observers, snap)
}

// Analyze sends the selected file and blocks until the request settles.
// The returned error is the same failure recorded in State.Error, or one of
// ErrNoFile, ErrInFlight, ErrClosed when nothing was sent.
func (c *Controller) Analyze(ctx context.Context) error {
	file, err := c.begin()
	if err != nil {
		return err
	}
	return c.run(ctx, file)
}

// Start is Analyze on a background goroutine bound to the controller's
// lifetime. Precondition errors are returned synchronously.
func (c *Controller) Start() error {
	file, err := c.begin()
	if err != nil {
		return err
	}
	go func() {
		_ = c.run(context.Background(), file)
	}()
	return nil
}

// Wait blocks until no request is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close tears the controller down. In-flight requests are canceled and their
// outcome is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) begin() (*fileref.Ref, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return nil, ErrClosed
	case c.state.File == nil:
		c.mu.Unlock()
		metrics.IncAnalysisRejected()
		return nil, ErrNoFile
	case c.state.Loading:
		c.mu.Unlock()
		metrics.IncAnalysisRejected()
		return nil, ErrInFlight
	}
	file := c.state.File
	c.state.Error = ""
	c.state.Result = nil
	c.state.Loading = true
	c.inflight.Add(1)
	snap, observers := c.state, c.observers
	c.mu.Unlock()

	notify(observers, snap)
	return file, nil
}

func (c *Controller) run(ctx context.Context, file *fileref.Ref) error {
	defer c.inflight.Done()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.lifetime, cancel)
	defer stop()

	metrics.IncAnalysisStarted()
	start := time.Now()

	res, err := c.analyzer.Analyze(runCtx, file.Upload())
	if err == nil {
		err = c.sleep(runCtx, c.settleDelay)
	}
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)

	fields := map[string]any{
		"view_id":     c.id,
		"file":        file.Name,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if err != nil {
		metrics.IncAnalysisFailed()
		fields["err"] = err.Error()
		telemetry.Error("upload.analyze.failed", fields)
	} else {
		metrics.IncAnalysisCompleted()
		fields["skills"] = len(res.Skills)
		telemetry.Info("upload.analyze.succeeded", fields)
	}

	c.settle(res, err)
	return err
}

func (c *Controller) settle(res *analysis.Result, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.Loading = false
	if err != nil {
		c.state.Error = err.Error()
		c.state.Result = nil
	} else {
		c.state.Result = res
	}
	snap, observers := c.state, c.observers
	c.mu.Unlock()

	notify(observers, snap)
}

func notify(observers []func(State), snap State) {
	for _, fn := range observers {
		fn(snap)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package background fetches one decorative image per view and keeps it in a
// blob store. Failures are logged and otherwise invisible.
package background

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"resume-analyzer-web/internal/shared/metrics"
	"resume-analyzer-web/internal/shared/storage/object"
	"resume-analyzer-web/internal/shared/telemetry"
)

var maxImageBytes int64 = 20 << 20

// Image is a handle to a stored background image.
type Image struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Loader fetches the background at most once.
type Loader struct {
	url    string
	store  object.ObjectStore
	owner  string
	client *http.Client

	once    sync.Once
	started atomic.Bool
	done    chan struct{}

	mu    sync.RWMutex
	image *Image
}

// NewLoader constructs a Loader that saves into store under owner.
func NewLoader(url string, store object.ObjectStore, owner string, client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{
		url:    url,
		store:  store,
		owner:  owner,
		client: client,
		done:   make(chan struct{}),
	}
}

// Start runs the fetch on its own goroutine. Later calls do nothing.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		l.started.Store(true)
		go l.run(ctx)
	})
}

// Load runs the fetch synchronously if it has not run yet.
func (l *Loader) Load(ctx context.Context) {
	l.once.Do(func() {
		l.started.Store(true)
		l.run(ctx)
	})
	l.Wait()
}

// Wait blocks until a started fetch has settled. It returns at once if none was started.
func (l *Loader) Wait() {
	if !l.started.Load() {
		return
	}
	<-l.done
}

// Image returns the stored background, if any.
func (l *Loader) Image() (Image, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.image == nil {
		return Image{}, false
	}
	return *l.image, true
}

// Release deletes the stored image. Stores that track owners drop every
// object saved under the loader's owner. The handle is unset afterwards.
func (l *Loader) Release(ctx context.Context) {
	l.mu.Lock()
	img := l.image
	l.image = nil
	l.mu.Unlock()

	if purger, ok := l.store.(object.OwnerDeleter); ok {
		if n := purger.DeleteOwner(l.owner); n > 0 {
			telemetry.Info("background.released", map[string]any{"owner": l.owner, "objects": n})
		}
		return
	}
	if img == nil {
		return
	}
	if err := l.store.Delete(ctx, img.Key); err != nil {
		telemetry.Warn("background.release.failed", map[string]any{"key": img.Key, "err": err})
	}
}

func (l *Loader) run(ctx context.Context) {
	defer close(l.done)

	img, err := l.fetch(ctx)
	if err != nil {
		metrics.IncBackgroundFailed()
		telemetry.Error("background.fetch.failed", map[string]any{
			"url":   l.url,
			"owner": l.owner,
			"err":   err,
		})
		return
	}

	l.mu.Lock()
	l.image = img
	l.mu.Unlock()

	metrics.IncBackgroundFetched()
	telemetry.Info("background.fetched", map[string]any{
		"owner":        l.owner,
		"key":          img.Key,
		"content_type": img.ContentType,
		"bytes":        img.Size,
	})
}

func (l *Loader) fetch(ctx context.Context) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	key, size, mimeType, err := l.store.Save(ctx, l.owner, "background", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mimeType = ct
	}
	return &Image{Key: key, ContentType: mimeType, Size: size}, nil
}

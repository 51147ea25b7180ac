package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"resume-analyzer-web/internal/shared/storage/object"
	"resume-analyzer-web/internal/shared/util"
)

// Store keeps objects in process memory. Keys contain no path separators so
// they can be used directly as URL path segments.
type Store struct {
	mu      sync.RWMutex
	objects map[string]entry
}

type entry struct {
	owner    string
	mimeType string
	data     []byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string]entry)}
}

// Save buffers the reader and files it under a fresh key.
func (s *Store) Save(ctx context.Context, owner string, fileName string, r io.Reader) (string, int64, string, error) {
	sanitizedName, err := util.ObjectName(fileName)
	if err != nil {
		return "", 0, "", fmt.Errorf("object name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", fmt.Errorf("read body: %w", err)
	}

	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	mimeType := http.DetectContentType(sniff)

	key := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizedName)

	s.mu.Lock()
	s.objects[key] = entry{owner: owner, mimeType: mimeType, data: data}
	s.mu.Unlock()

	return key, int64(len(data)), mimeType, nil
}

// Open returns a reader over a stored object.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.objects[storageKey]
	s.mu.RUnlock()
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(e.data)), nil
}

// Delete drops a stored object. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, storageKey)
	s.mu.Unlock()
	return nil
}

// DeleteOwner drops every object saved by owner and reports how many were removed.
func (s *Store) DeleteOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, e := range s.objects {
		if e.owner == owner {
			delete(s.objects, key)
			n++
		}
	}
	return n
}

// Len reports how many objects are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ object.ObjectStore = (*Store)(nil)

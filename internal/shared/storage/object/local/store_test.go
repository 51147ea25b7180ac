package local

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"resume-analyzer-web/internal/shared/storage/object"
)

func TestSaveWritesUnderOwnerNamespace(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	key, size, mime, err := store.Save(ctx, "cli", "background.jpg", strings.NewReader("\xff\xd8\xff\xe0 fake jpeg"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size == 0 {
		t.Fatalf("expected non-zero size")
	}
	if mime != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", mime)
	}
	if !strings.HasSuffix(key, "_background.jpg") {
		t.Fatalf("unexpected key %q", key)
	}

	path, err := store.Path(key)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat saved file: %v", err)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !strings.HasSuffix(string(body), "fake jpeg") {
		t.Fatalf("unexpected body %q", body)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../outside"); err == nil {
		t.Fatal("expected invalid storage key error")
	}
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/weaverhq/weaver/internal/retrieve"
)

func TestWatcher_ReindexesAfterChange(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}

	got := make(chan []retrieve.File, 1)
	w := New(root, func(ctx context.Context, files []retrieve.File) error {
		select {
		case got <- files:
		default:
		}
		return nil
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register directories.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(src, "app.ts"), []byte("export const app = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case files := <-got:
		found := false
		for _, f := range files {
			if f.Path == "src/app.ts" {
				found = true
			}
		}
		if !found {
			t.Errorf("reindex batch missing changed file: %v", files)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reindex callback never fired")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatcher_IgnoresNonSourceFiles(t *testing.T) {
	root := t.TempDir()
	got := make(chan []retrieve.File, 1)
	w := New(root, func(ctx context.Context, files []retrieve.File) error {
		select {
		case got <- files:
		default:
		}
		return nil
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-got:
		t.Error("reindex fired for an unindexable file")
	case <-time.After(500 * time.Millisecond):
	}
}

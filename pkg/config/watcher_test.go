package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWatcherSignalsOnChange verifies a manifest rewrite produces exactly
// one debounced change signal
func TestWatcherSignalsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edaconf.yaml")
	if err := os.WriteFile(path, []byte("controller: {}\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("create watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Editor-style burst: several writes within the debounce window.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("controller: {}\n# rev\n"), 0o644); err != nil {
			t.Fatalf("rewrite manifest: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal received")
	}
}

// TestWatcherIgnoresSiblings verifies unrelated files in the same directory
// do not trigger a signal
func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edaconf.yaml")
	if err := os.WriteFile(path, []byte("controller: {}\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("create watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	sibling := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(sibling, []byte("unrelated"), 0o644); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	select {
	case <-w.Changes():
		t.Fatal("sibling write must not signal")
	case <-time.After(time.Second):
	}
}

package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_ReportsVanishedBackingFile(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	target := filepath.Join(dir, "abc.m4a")
	if err := os.WriteFile(target, []byte("voice"), 0o644); err != nil {
		t.Fatal(err)
	}

	known := func() map[string]struct{} {
		return map[string]struct{}{"abc.m4a": {}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, dir, logger, known, func(kind, name string) {
		mu.Lock()
		events = append(events, kind+":"+name)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(target)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "missing:abc.m4a" {
				return true
			}
		}
		return false
	}, "expected missing:abc.m4a callback")
}

func TestWatcher_IgnoresUnreferencedRemovals(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	target := filepath.Join(dir, "orphan.bin")
	_ = os.WriteFile(target, []byte("x"), 0o644)

	known := func() map[string]struct{} { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, dir, logger, known, func(kind, name string) {
		mu.Lock()
		events = append(events, kind+":"+name)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)
	_ = os.Remove(target)
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 0 {
		t.Errorf("unexpected events: %v", events)
	}
}

func TestWatcher_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	go Watch(ctx, dir, logger, func() map[string]struct{} { return nil }, nil)

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		info, err := os.Stat(dir)
		return err == nil && info.IsDir()
	}, "watcher should create the media directory")
	cancel()
}

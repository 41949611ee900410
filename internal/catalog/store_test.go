package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func mustLoad(t *testing.T, data string) *Catalog {
	t.Helper()

	c, err := Load([]byte(data), FormatJSON)
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return c
}

func TestStoreSwap(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	if s.Load() != nil {
		t.Fatalf("expected empty store")
	}

	first := mustLoad(t, fswFixture)
	if previous := s.Swap(first); previous != nil {
		t.Fatalf("expected no previous catalog")
	}

	second := mustLoad(t, `{"programs": [{"program_name": "Only", "official_url": "u"}]}`)
	if previous := s.Swap(second); previous != first {
		t.Fatalf("expected previous catalog to be returned")
	}
	if s.Load() != second {
		t.Fatalf("expected store to hold the new catalog")
	}
}

func TestStoreConcurrentReaders(t *testing.T) {
	t.Parallel()

	a := mustLoad(t, fswFixture)
	b := mustLoad(t, `{"programs": [{"program_name": "Only", "official_url": "u"}]}`)
	s := NewStore(a)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := s.Load()
				if c.Len() != 1 && c.Len() != 2 {
					t.Errorf("unexpected catalog size %d", c.Len())
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			s.Swap(b)
		} else {
			s.Swap(a)
		}
	}
	wg.Wait()
}

func TestWatcherReloadKeepsCatalogOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "programs.json")
	if err := os.WriteFile(path, []byte(fswFixture), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	initial, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store := NewStore(initial)

	core, observed := observer.New(zapcore.InfoLevel)
	var results []bool
	w := NewWatcher(store, WatcherConfig{
		Path:     path,
		Logger:   zap.New(core),
		OnReload: func(ok bool) { results = append(results, ok) },
	})

	if err := os.WriteFile(path, []byte(`{"programs": `), 0o600); err != nil {
		t.Fatalf("writing broken catalog: %v", err)
	}
	if err := w.Reload(); err == nil {
		t.Fatalf("expected reload error")
	}
	if store.Load() != initial {
		t.Fatalf("expected broken reload to keep the current catalog")
	}

	updated := strings.Replace(fswFixture, "2025-10-17", "2025-11-01", 1)
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("writing updated catalog: %v", err)
	}
	if err := w.Reload(); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}
	if store.Load().Version() != "2025-11-01" {
		t.Fatalf("expected updated version, got %q", store.Load().Version())
	}

	if len(results) != 2 || results[0] || !results[1] {
		t.Fatalf("unexpected reload notifications: %v", results)
	}
	if observed.FilterMessage("catalog reloaded").Len() != 1 {
		t.Fatalf("expected one reload log entry")
	}
}

func TestWatcherRunPicksUpChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "programs.json")
	if err := os.WriteFile(path, []byte(fswFixture), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	store := NewStore(mustLoad(t, fswFixture))
	reloaded := make(chan bool, 4)
	w := NewWatcher(store, WatcherConfig{
		Path:     path,
		Debounce: 20 * time.Millisecond,
		OnReload: func(ok bool) { reloaded <- ok },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(fswFixture, "2025-10-17", "2026-01-15", 1)
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("writing updated catalog: %v", err)
	}

	select {
	case ok := <-reloaded:
		if !ok {
			t.Fatalf("expected successful reload")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}

	if store.Load().Version() != "2026-01-15" {
		t.Fatalf("expected reloaded version, got %q", store.Load().Version())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"scribe/internal/logging"
)

func TestDebouncerWaitsForQuiet(t *testing.T) {
	d := newDebouncer(time.Second)
	base := time.Unix(1000, 0)
	d.touch("/in/b.mp3", base)
	d.touch("/in/a.mp3", base)
	if got := d.due(base.Add(500 * time.Millisecond)); len(got) != 0 {
		t.Fatalf("expected nothing due yet, got %v", got)
	}
	d.touch("/in/b.mp3", base.Add(800*time.Millisecond))
	if got := d.due(base.Add(time.Second)); !slices.Equal(got, []string{"/in/a.mp3"}) {
		t.Fatalf("expected only a.mp3 due, got %v", got)
	}
	d.forget("/in/b.mp3")
	if got := d.due(base.Add(time.Hour)); len(got) != 0 {
		t.Fatalf("expected forgotten path to stay quiet, got %v", got)
	}
}

func TestWatcherHandsOffSettledRecordings(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.mp3"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	seen := make(chan string, 8)
	w := New(Options{Dir: dir, Extension: ".mp3", Debounce: 50 * time.Millisecond, Existing: true},
		func(_ context.Context, path string) { seen <- filepath.Base(path) },
		logging.NewNop(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	expectNext := func(want string) {
		t.Helper()
		select {
		case got := <-seen:
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
	expectNext("existing.mp3")

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.MP3"), []byte("fresh"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectNext("new.MP3")

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	select {
	case extra := <-seen:
		t.Fatalf("unexpected extra file %s", extra)
	default:
	}
}

func TestWatcherRejectsMissingDir(t *testing.T) {
	w := New(Options{Dir: filepath.Join(t.TempDir(), "missing"), Extension: ".mp3"}, func(context.Context, string) {}, logging.NewNop())
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

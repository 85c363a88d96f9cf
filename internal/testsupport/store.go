package testsupport

import (
	"testing"

	"scribe/internal/config"
	"scribe/internal/history"
)

// OpenHistory opens the run history database configured by cfg. The store
// is closed when the test finishes.
func OpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close history: %v", err)
		}
	})
	return store
}

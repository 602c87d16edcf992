package testsupport

import (
	"testing"

	"github.com/thegray/audioservice/internal/catalog"
	"github.com/thegray/audioservice/internal/config"
)

// MustOpenCatalog opens a catalog store for the config and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open catalog store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

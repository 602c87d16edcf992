package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/thegray/audioservice/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.AssetRoot = filepath.Join(base, "assets")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.FFmpeg.TimeoutSeconds = 10

	return &cfg
}

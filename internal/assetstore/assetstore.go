package assetstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thegray/audioservice/internal/services"
)

// Store places uploaded and converted audio files under a root directory,
// partitioned by upload date. It owns byte placement only; record identity
// belongs to the catalog.
type Store struct {
	root string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store clock, used by tests for deterministic names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Store rooted at the given directory.
func New(root string, opts ...Option) *Store {
	s := &Store{root: root, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Put writes payload under a date-partitioned directory with a name that
// embeds the user, phrase, timestamp, and original file name so concurrent
// uploads cannot collide. It returns the final path and the timestamp used,
// in epoch milliseconds.
func (s *Store) Put(userID, phraseID int64, originalName string, payload []byte) (string, int64, error) {
	now := s.now().UTC()
	dir := filepath.Join(s.root, now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, services.Wrap(services.ErrStorage, "assetstore", "create directory", dir, err)
	}

	millis := now.UnixMilli()
	name := fmt.Sprintf("%d_%d_%d_%s", userID, phraseID, millis, sanitizeName(originalName))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", 0, services.Wrap(services.ErrStorage, "assetstore", "write file", path, err)
	}
	return path, millis, nil
}

// Exists reports whether a file is present at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read returns the bytes stored at path. A missing or unreadable file is a
// storage fault, never silently empty.
func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "assetstore", "read file", path, err)
	}
	return data, nil
}

// Remove deletes a file, tolerating one that is already gone. Used to clean
// up partial transcode output.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrStorage, "assetstore", "remove file", path, err)
	}
	return nil
}

// sanitizeName strips path separators from a client-supplied file name. The
// stored name is load-bearing only for collision avoidance, so flattening is
// enough.
func sanitizeName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "" || name == "." {
		return "upload"
	}
	return name
}

package assetstore_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thegray/audioservice/internal/assetstore"
	"github.com/thegray/audioservice/internal/services"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPutPartitionsByDate(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	store := assetstore.New(root, assetstore.WithClock(fixedClock(at)))

	payload := []byte("audio-bytes")
	path, millis, err := store.Put(1, 2, "rec.mp3", payload)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if millis != at.UnixMilli() {
		t.Fatalf("expected timestamp %d, got %d", at.UnixMilli(), millis)
	}

	wantDir := filepath.Join(root, "2026-03-14")
	if filepath.Dir(path) != wantDir {
		t.Fatalf("expected date directory %q, got %q", wantDir, filepath.Dir(path))
	}
	wantName := fmt.Sprintf("1_2_%d_rec.mp3", millis)
	if filepath.Base(path) != wantName {
		t.Fatalf("expected name %q, got %q", wantName, filepath.Base(path))
	}

	data, err := store.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatal("read bytes differ from written bytes")
	}
}

func TestPutSanitizesFileName(t *testing.T) {
	store := assetstore.New(t.TempDir())
	path, _, err := store.Put(1, 1, "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if base := filepath.Base(path); base[len(base)-6:] != "passwd" {
		t.Fatalf("unexpected stored name %q", base)
	}
	if !store.Exists(path) {
		t.Fatal("stored file should exist")
	}
}

func TestExists(t *testing.T) {
	store := assetstore.New(t.TempDir())
	if store.Exists(filepath.Join(store.Root(), "nope")) {
		t.Fatal("missing file reported as existing")
	}
	path, _, err := store.Put(3, 4, "a.wav", []byte("w"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !store.Exists(path) {
		t.Fatal("written file reported as missing")
	}
	if store.Exists(filepath.Dir(path)) {
		t.Fatal("directory must not count as an existing asset")
	}
}

func TestReadMissingIsStorageFault(t *testing.T) {
	store := assetstore.New(t.TempDir())
	_, err := store.Read(filepath.Join(store.Root(), "gone.mp3"))
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage fault, got %v", err)
	}
}

func TestRemoveToleratesMissing(t *testing.T) {
	store := assetstore.New(t.TempDir())
	if err := store.Remove(filepath.Join(store.Root(), "absent")); err != nil {
		t.Fatalf("Remove of absent file should succeed, got %v", err)
	}

	path, _, err := store.Put(1, 1, "b.ogg", []byte("o"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("file should be gone after Remove")
	}
}

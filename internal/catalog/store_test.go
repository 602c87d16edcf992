package catalog_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/thegray/audioservice/internal/catalog"
	"github.com/thegray/audioservice/internal/testsupport"
)

func mustSave(t *testing.T, store *catalog.Store, record *catalog.Record) *catalog.Record {
	t.Helper()
	saved, err := store.Save(context.Background(), record)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return saved
}

func TestSaveAssignsIDAndNormalizesFormat(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))

	saved := mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 1000, Format: " MP3 ",
		FileName: "rec.mp3", FilePath: "/assets/2026-01-01/1_1_1000_rec.mp3", CreatedAt: 1000,
	})
	if saved.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if saved.Format != "mp3" {
		t.Fatalf("expected normalized format, got %q", saved.Format)
	}
	if !saved.IsOriginal() {
		t.Fatal("record with group_id == created_at should be original")
	}
}

func TestSaveRejectsIncompleteRecords(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Save(ctx, nil); err == nil {
		t.Fatal("expected error for nil record")
	}
	if _, err := store.Save(ctx, &catalog.Record{FilePath: "/x"}); err == nil {
		t.Fatal("expected error for empty format")
	}
	if _, err := store.Save(ctx, &catalog.Record{Format: "mp3"}); err == nil {
		t.Fatal("expected error for empty file path")
	}
}

func TestFilePathUnique(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))

	mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 1, Format: "mp3",
		FileName: "a.mp3", FilePath: "/assets/a.mp3", CreatedAt: 1,
	})
	_, err := store.Save(context.Background(), &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 2, Format: "mp3",
		FileName: "a.mp3", FilePath: "/assets/a.mp3", CreatedAt: 2,
	})
	if err == nil {
		t.Fatal("expected unique constraint violation on file_path")
	}
}

func TestLatestByUserPhrase(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()

	absent, err := store.LatestByUserPhrase(ctx, 9, 9)
	if err != nil {
		t.Fatalf("LatestByUserPhrase failed: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for empty slot, got %+v", absent)
	}

	for i := int64(1); i <= 3; i++ {
		mustSave(t, store, &catalog.Record{
			UserID: 1, PhraseID: 2, GroupID: i * 100, Format: "mp3",
			FileName: "rec.mp3", FilePath: fmt.Sprintf("/assets/%d.mp3", i), CreatedAt: i * 100,
		})
	}
	// A different slot must not interfere.
	mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 3, GroupID: 999, Format: "wav",
		FileName: "other.wav", FilePath: "/assets/other.wav", CreatedAt: 999,
	})

	latest, err := store.LatestByUserPhrase(ctx, 1, 2)
	if err != nil {
		t.Fatalf("LatestByUserPhrase failed: %v", err)
	}
	if latest == nil || latest.CreatedAt != 300 {
		t.Fatalf("expected newest record, got %+v", latest)
	}
}

func TestLatestByUserPhraseTieBreaksOnID(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))

	mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 100, Format: "mp3",
		FileName: "a.mp3", FilePath: "/a.mp3", CreatedAt: 100,
	})
	second := mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 100, Format: "wav",
		FileName: "a.wav", FilePath: "/a.wav", CreatedAt: 100,
	})

	latest, err := store.LatestByUserPhrase(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("LatestByUserPhrase failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("equal timestamps should break on id desc, got %+v", latest)
	}
}

func TestLatestVariantScopedToGroupAndFormat(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()

	// Old group with a cached wav variant.
	mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 100, Format: "mp3",
		FileName: "old.mp3", FilePath: "/old.mp3", CreatedAt: 100,
	})
	mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 100, Format: "wav",
		FileName: "old.mp3", FilePath: "/old.wav", CreatedAt: 150,
	})
	// New group, no wav yet.
	mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 200, Format: "mp3",
		FileName: "new.mp3", FilePath: "/new.mp3", CreatedAt: 200,
	})

	variant, err := store.LatestVariant(ctx, 1, 1, "WAV", 100)
	if err != nil {
		t.Fatalf("LatestVariant failed: %v", err)
	}
	if variant == nil || variant.FilePath != "/old.wav" {
		t.Fatalf("expected old group's wav variant, got %+v", variant)
	}

	missing, err := store.LatestVariant(ctx, 1, 1, "wav", 200)
	if err != nil {
		t.Fatalf("LatestVariant failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("stale group's variant must not leak into the new group, got %+v", missing)
	}
}

func TestOriginalForGroup(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()

	original := mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 100, Format: "mp3",
		FileName: "rec.mp3", FilePath: "/rec.mp3", CreatedAt: 100,
	})
	mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 100, Format: "wav",
		FileName: "rec.mp3", FilePath: "/rec.wav", CreatedAt: 160,
	})
	mustSave(t, store, &catalog.Record{
		UserID: 1, PhraseID: 1, GroupID: 100, Format: "ogg",
		FileName: "rec.mp3", FilePath: "/rec.ogg", CreatedAt: 140,
	})

	oldest, err := store.OriginalForGroup(ctx, 1, 1, 100)
	if err != nil {
		t.Fatalf("OriginalForGroup failed: %v", err)
	}
	if oldest == nil || oldest.ID != original.ID {
		t.Fatalf("expected the original record, got %+v", oldest)
	}

	none, err := store.OriginalForGroup(ctx, 1, 1, 777)
	if err != nil {
		t.Fatalf("OriginalForGroup failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for unknown group, got %+v", none)
	}
}

func TestListAndStats(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for i := int64(1); i <= 2; i++ {
		mustSave(t, store, &catalog.Record{
			UserID: 1, PhraseID: 1, GroupID: i, Format: "mp3",
			FileName: "r.mp3", FilePath: fmt.Sprintf("/r%d.mp3", i), CreatedAt: i,
		})
	}
	mustSave(t, store, &catalog.Record{
		UserID: 2, PhraseID: 1, GroupID: 5, Format: "flac",
		FileName: "r.flac", FilePath: "/r.flac", CreatedAt: 5,
	})

	records, err := store.ListByUserPhrase(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListByUserPhrase failed: %v", err)
	}
	if len(records) != 2 || records[0].CreatedAt != 2 {
		t.Fatalf("expected two records newest first, got %+v", records)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected three records, got %d", len(all))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["mp3"] != 2 || stats["flac"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestCheckHealth(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %+v", health)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
}

package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/thegray/audioservice/internal/assetstore"
	"github.com/thegray/audioservice/internal/audioformat"
	"github.com/thegray/audioservice/internal/catalog"
	"github.com/thegray/audioservice/internal/services"
	"github.com/thegray/audioservice/internal/transcode"
)

// Engine orchestrates uploads and format resolution. It reads and appends
// catalog records but never updates or deletes them; the catalog's timestamp
// ordering is the only consistency mechanism between concurrent requests.
type Engine struct {
	formats    *audioformat.Table
	assets     *assetstore.Store
	catalog    *catalog.Store
	transcoder transcode.Transcoder
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs a resolution engine.
func New(formats *audioformat.Table, assets *assetstore.Store, cat *catalog.Store, transcoder transcode.Transcoder, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		formats:    formats,
		assets:     assets,
		catalog:    cat,
		transcoder: transcoder,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IngestRequest describes an upload.
type IngestRequest struct {
	UserID      int64
	PhraseID    int64
	ContentType string
	FileName    string
	Payload     []byte
}

// Upload is the receipt for a persisted original.
type Upload struct {
	RecordID int64
	FileName string
	FilePath string
	Format   string
}

// Asset is a resolved download: the file bytes plus the record metadata the
// transport layer needs to serve them.
type Asset struct {
	RecordID    int64
	FileName    string
	FilePath    string
	Format      string
	ContentType string
	Payload     []byte
}

// Ingest validates and stores an uploaded recording. The new record starts
// its own group: its group id equals its creation timestamp. No conversion
// happens at ingest time; requested formats are materialized lazily on first
// read.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (*Upload, error) {
	if len(req.Payload) == 0 {
		// Classified as a storage fault, not a validation error: the API
		// reports empty uploads as a server-side 500, not a 400.
		return nil, services.Wrap(services.ErrStorage, "resolver", "ingest", "uploaded payload is empty", nil)
	}
	format, ok := e.formats.ExtensionForContentType(req.ContentType)
	if !ok {
		return nil, services.Wrap(services.ErrUnsupportedFormat, "resolver", "ingest",
			fmt.Sprintf("content type %q", req.ContentType), nil)
	}

	path, millis, err := e.assets.Put(req.UserID, req.PhraseID, req.FileName, req.Payload)
	if err != nil {
		return nil, err
	}

	record, err := e.catalog.Save(ctx, &catalog.Record{
		UserID:    req.UserID,
		PhraseID:  req.PhraseID,
		GroupID:   millis,
		Format:    format,
		FileName:  filepath.Base(path),
		FilePath:  path,
		CreatedAt: millis,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "resolver", "ingest", "persist record", err)
	}

	e.logger.Info("asset ingested",
		slog.Int64("record_id", record.ID),
		slog.Int64("user_id", record.UserID),
		slog.Int64("phrase_id", record.PhraseID),
		slog.String("format", record.Format),
		slog.String("path", record.FilePath),
	)

	return &Upload{
		RecordID: record.ID,
		FileName: record.FileName,
		FilePath: record.FilePath,
		Format:   record.Format,
	}, nil
}

// Resolve returns the stored audio for a (user, phrase) slot in the requested
// format, transcoding from the slot's current original on a cache miss.
//
// The fallback chain, in order: the latest record for the slot wins outright
// when its format matches; otherwise the latest same-format sibling within
// the latest record's group; otherwise a fresh conversion from that group's
// original. A record whose file is missing on disk is a storage fault at
// every step — never a cache miss that would silently re-derive from a
// different source.
func (e *Engine) Resolve(ctx context.Context, userID, phraseID int64, format string) (*Asset, error) {
	requested := audioformat.Normalize(format)
	contentType, err := e.formats.ContentTypeForFormat(requested)
	if err != nil {
		return nil, err
	}

	latest, err := e.catalog.LatestByUserPhrase(ctx, userID, phraseID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "resolver", "resolve", "latest lookup", err)
	}
	if latest == nil {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "resolve",
			fmt.Sprintf("no asset for user %d phrase %d", userID, phraseID), nil)
	}

	if latest.Format == requested {
		return e.serve(latest, contentType)
	}

	variant, err := e.catalog.LatestVariant(ctx, userID, phraseID, requested, latest.GroupID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "resolver", "resolve", "variant lookup", err)
	}
	if variant != nil {
		return e.serve(variant, contentType)
	}

	original, err := e.catalog.OriginalForGroup(ctx, userID, phraseID, latest.GroupID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "resolver", "resolve", "original lookup", err)
	}
	if original == nil {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "resolve",
			fmt.Sprintf("group %d has no original to derive from", latest.GroupID), nil)
	}
	if !e.assets.Exists(original.FilePath) {
		return nil, services.Wrap(services.ErrStorage, "resolver", "resolve",
			fmt.Sprintf("original record %d recorded but missing on disk: %s", original.ID, original.FilePath), nil)
	}

	outputPath, err := e.transcoder.Transcode(ctx, original.FilePath, requested)
	if err != nil {
		// The adapter removes its partial output; add the source identity
		// the caller needs for diagnosis.
		return nil, fmt.Errorf("derive %s from record %d: %w", requested, original.ID, err)
	}

	record, err := e.catalog.Save(ctx, &catalog.Record{
		UserID:    userID,
		PhraseID:  phraseID,
		GroupID:   original.GroupID,
		Format:    requested,
		FileName:  original.FileName,
		FilePath:  outputPath,
		CreatedAt: e.now().UTC().UnixMilli(),
	})
	if err != nil {
		// The converted file stays behind as an orphan; a record pointing at
		// a missing file would be worse than a stray file.
		return nil, services.Wrap(services.ErrStorage, "resolver", "resolve", "persist variant", err)
	}

	e.logger.Info("variant materialized",
		slog.Int64("record_id", record.ID),
		slog.Int64("source_record_id", original.ID),
		slog.Int64("group_id", record.GroupID),
		slog.String("format", record.Format),
		slog.String("path", record.FilePath),
	)

	return e.serve(record, contentType)
}

// serve reads a record's file and packages it for the transport layer. A
// missing or unreadable file is a storage fault.
func (e *Engine) serve(record *catalog.Record, contentType string) (*Asset, error) {
	if !e.assets.Exists(record.FilePath) {
		return nil, services.Wrap(services.ErrStorage, "resolver", "serve",
			fmt.Sprintf("record %d recorded but missing on disk: %s", record.ID, record.FilePath), nil)
	}
	payload, err := e.assets.Read(record.FilePath)
	if err != nil {
		return nil, err
	}
	return &Asset{
		RecordID:    record.ID,
		FileName:    record.FileName,
		FilePath:    record.FilePath,
		Format:      record.Format,
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

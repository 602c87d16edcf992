package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/thegray/audioservice/internal/audioformat"
	"github.com/thegray/audioservice/internal/config"
)

// Store manages asset record persistence backed by SQLite.
//
// Records are append-only: Save is the only write path, and nothing updates
// or deletes a record once persisted. The created_at ordering enforced here
// is the only cross-request consistency mechanism the resolution engine
// relies on.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens a catalog database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save persists a new record and returns it with the assigned identifier.
// The record's format is case-normalized before the write.
func (s *Store) Save(ctx context.Context, record *Record) (*Record, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	format := audioformat.Normalize(record.Format)
	if format == "" {
		return nil, errors.New("record format is empty")
	}
	if record.FilePath == "" {
		return nil, errors.New("record file path is empty")
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO asset_records (
            user_id, phrase_id, group_id, format, file_name, file_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.UserID,
		record.PhraseID,
		record.GroupID,
		format,
		record.FileName,
		record.FilePath,
		record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a record by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM asset_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// LatestByUserPhrase returns the newest record for a (user, phrase) slot, or
// nil when the slot has no uploads.
func (s *Store) LatestByUserPhrase(ctx context.Context, userID, phraseID int64) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM asset_records
         WHERE user_id = ? AND phrase_id = ?
         ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID, phraseID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest by slot: %w", err)
	}
	return record, nil
}

// LatestVariant returns the newest record within a group matching a format,
// or nil when no such variant exists.
func (s *Store) LatestVariant(ctx context.Context, userID, phraseID int64, format string, groupID int64) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM asset_records
         WHERE user_id = ? AND phrase_id = ? AND format = ? AND group_id = ?
         ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID, phraseID, audioformat.Normalize(format), groupID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest variant: %w", err)
	}
	return record, nil
}

// OriginalForGroup returns the oldest record of a group — the original the
// group's variants derive from — or nil when the group is empty.
func (s *Store) OriginalForGroup(ctx context.Context, userID, phraseID, groupID int64) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM asset_records
         WHERE user_id = ? AND phrase_id = ? AND group_id = ?
         ORDER BY created_at ASC, id ASC LIMIT 1`,
		userID, phraseID, groupID,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("original for group: %w", err)
	}
	return record, nil
}

// ListByUserPhrase returns every record for a slot, newest first.
func (s *Store) ListByUserPhrase(ctx context.Context, userID, phraseID int64) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM asset_records
         WHERE user_id = ? AND phrase_id = ?
         ORDER BY created_at DESC, id DESC`,
		userID, phraseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list by slot: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// List returns every record in the catalog, newest first.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM asset_records ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Stats returns a count of records grouped by format.
func (s *Store) Stats(ctx context.Context) (FormatStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT format, COUNT(1) FROM asset_records GROUP BY format`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	defer rows.Close()

	stats := make(FormatStats)
	for rows.Next() {
		var format string
		var count int
		if err := rows.Scan(&format, &count); err != nil {
			return nil, err
		}
		stats[format] = count
	}
	return stats, rows.Err()
}

// CheckHealth returns diagnostic information about the catalog database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("catalog database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat catalog database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalog database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if err := s.db.PingContext(ctx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping catalog database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'asset_records'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		row = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM asset_records")
		if err := row.Scan(&health.TotalRecords); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count records: %w", err)
		}
	}

	row = s.db.QueryRowContext(ctx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

const recordColumns = "id, user_id, phrase_id, group_id, format, file_name, file_path, created_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	record := &Record{}
	if err := scanner.Scan(
		&record.ID,
		&record.UserID,
		&record.PhraseID,
		&record.GroupID,
		&record.Format,
		&record.FileName,
		&record.FilePath,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return record, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

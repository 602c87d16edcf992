package catalog

import "time"

// Record is the unit of persisted metadata: one stored audio file, either an
// original upload or a variant derived from one by transcoding.
//
// GroupID ties an original and all of its derived variants together. It equals
// the original's CreatedAt; variants copy it. CreatedAt and GroupID are epoch
// milliseconds so the equality holds exactly across process restarts.
type Record struct {
	ID        int64
	UserID    int64
	PhraseID  int64
	GroupID   int64
	Format    string
	FileName  string
	FilePath  string
	CreatedAt int64
}

// IsOriginal reports whether the record is the first upload of its group.
func (r *Record) IsOriginal() bool {
	return r != nil && r.GroupID == r.CreatedAt
}

// CreatedTime returns the creation timestamp as a time.Time.
func (r *Record) CreatedTime() time.Time {
	return time.UnixMilli(r.CreatedAt).UTC()
}

// FormatStats counts records per canonical format.
type FormatStats map[string]int

// Health captures diagnostic information about the catalog database.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalRecords     int
	Error            string
}

package audioformat

import (
	"strings"

	"github.com/thegray/audioservice/internal/services"
)

// DefaultFormat is the format whose encoder parameters are used when an
// encoding lookup sees a format the table does not know.
const DefaultFormat = "mp3"

// Encoding holds the ffmpeg parameters for one target format. Bitrate is
// empty for lossless formats and must then be omitted from the invocation.
type Encoding struct {
	Codec      string
	Bitrate    string
	SampleRate int
	Channels   int
}

// Table maps canonical format identifiers to encoder parameters and media
// types. It is immutable after construction; build one at startup and pass it
// to the components that need it.
type Table struct {
	encodings    map[string]Encoding
	contentTypes map[string]string
	extensions   map[string]string
}

// NewTable builds the format table with the supported audio formats.
func NewTable() *Table {
	t := &Table{
		encodings: map[string]Encoding{
			"mp3":  {Codec: "libmp3lame", Bitrate: "192k", SampleRate: 44100, Channels: 2},
			"aac":  {Codec: "aac", Bitrate: "128k", SampleRate: 44100, Channels: 2},
			"opus": {Codec: "libopus", Bitrate: "96k", SampleRate: 48000, Channels: 2},
			"flac": {Codec: "flac", SampleRate: 44100, Channels: 2},
			"wav":  {Codec: "pcm_s16le", SampleRate: 44100, Channels: 2},
			"ogg":  {Codec: "libvorbis", Bitrate: "160k", SampleRate: 44100, Channels: 2},
		},
		contentTypes: map[string]string{
			"mp3":  "audio/mpeg",
			"wav":  "audio/wav",
			"ogg":  "audio/ogg",
			"aac":  "audio/aac",
			"flac": "audio/flac",
			"opus": "audio/opus",
		},
		extensions: map[string]string{
			"audio/mpeg":  "mp3",
			"audio/wav":   "wav",
			"audio/wave":  "wav",
			"audio/x-wav": "wav",
			"audio/ogg":   "ogg",
			"audio/aac":   "aac",
			"audio/flac":  "flac",
			"audio/opus":  "opus",
		},
	}
	return t
}

// Normalize lowercases and trims a format identifier. All lookups and all
// persisted writes go through this first.
func Normalize(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// Encoding returns the encoder parameters for a format. Unrecognized formats
// fall back to the default format's parameters; rejecting unknown output
// formats is ContentTypeForFormat's job, not this lookup's.
func (t *Table) Encoding(format string) Encoding {
	if enc, ok := t.encodings[Normalize(format)]; ok {
		return enc
	}
	return t.encodings[DefaultFormat]
}

// ExtensionForContentType maps an upload content type to its canonical format
// identifier. The second return is false for unmapped content types.
func (t *Table) ExtensionForContentType(contentType string) (string, bool) {
	// Content types may carry parameters, e.g. "audio/ogg; codecs=opus".
	base := contentType
	if idx := strings.IndexByte(base, ';'); idx >= 0 {
		base = base[:idx]
	}
	ext, ok := t.extensions[strings.ToLower(strings.TrimSpace(base))]
	return ext, ok
}

// ContentTypeForFormat returns the response media type for a format. Unlike
// Encoding, this lookup is strict: an unrecognized format is an
// UnsupportedFormat fault.
func (t *Table) ContentTypeForFormat(format string) (string, error) {
	normalized := Normalize(format)
	ct, ok := t.contentTypes[normalized]
	if !ok {
		return "", services.Wrap(services.ErrUnsupportedFormat, "audioformat", "content type", normalized, nil)
	}
	return ct, nil
}

// Known reports whether a format identifier is in the table.
func (t *Table) Known(format string) bool {
	_, ok := t.contentTypes[Normalize(format)]
	return ok
}

// Formats returns the canonical format identifiers in no particular order.
func (t *Table) Formats() []string {
	out := make([]string, 0, len(t.contentTypes))
	for format := range t.contentTypes {
		out = append(out, format)
	}
	return out
}

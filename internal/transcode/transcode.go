package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thegray/audioservice/internal/audioformat"
	"github.com/thegray/audioservice/internal/services"
)

var commandContext = exec.CommandContext

// Transcoder converts one audio file into another format. Implementations
// perform no caching and no metadata writes; they are pure file-to-file
// transformations.
type Transcoder interface {
	Transcode(ctx context.Context, sourcePath, targetFormat string) (string, error)
}

// Option configures the ffmpeg client.
type Option func(*FFmpeg)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithTimeout bounds a single conversion. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(f *FFmpeg) {
		f.timeout = timeout
	}
}

// FFmpeg wraps the ffmpeg command-line encoder.
type FFmpeg struct {
	binary  string
	formats *audioformat.Table
	timeout time.Duration
}

// NewFFmpeg constructs an ffmpeg client resolving encoder parameters through
// the given format table.
func NewFFmpeg(formats *audioformat.Table, opts ...Option) *FFmpeg {
	f := &FFmpeg{binary: "ffmpeg", formats: formats}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Transcode converts sourcePath into targetFormat, writing the output next to
// the source. Each invocation gets a unique output name so concurrent
// conversions of the same source never clobber each other. On failure any
// partial output file is removed before the fault is returned.
func (f *FFmpeg) Transcode(ctx context.Context, sourcePath, targetFormat string) (string, error) {
	if sourcePath == "" {
		return "", services.Wrap(services.ErrConversion, "transcode", "run", "source path required", nil)
	}
	target := audioformat.Normalize(targetFormat)
	if target == "" {
		return "", services.Wrap(services.ErrConversion, "transcode", "run", "target format required", nil)
	}

	outputPath := f.outputPath(sourcePath, target)
	args := f.buildArgs(sourcePath, outputPath, target)

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outputPath)
		detail := fmt.Sprintf("convert %s to %s", filepath.Base(sourcePath), target)
		if msg := lastLine(stderr.String()); msg != "" {
			detail += ": " + msg
		}
		return "", services.Wrap(services.ErrConversion, "transcode", "ffmpeg", detail, err)
	}

	if info, err := os.Stat(outputPath); err != nil || info.Size() == 0 {
		_ = os.Remove(outputPath)
		return "", services.Wrap(services.ErrConversion, "transcode", "ffmpeg",
			fmt.Sprintf("no output produced for %s", filepath.Base(sourcePath)), nil)
	}

	return outputPath, nil
}

func (f *FFmpeg) outputPath(sourcePath, target string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	suffix := uuid.NewString()[:8]
	return filepath.Join(filepath.Dir(sourcePath), stem+"_"+suffix+"."+target)
}

func (f *FFmpeg) buildArgs(sourcePath, outputPath, target string) []string {
	enc := f.formats.Encoding(target)
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", sourcePath,
		"-c:a", enc.Codec,
	}
	// Lossless formats carry no bitrate; omit the flag entirely.
	if enc.Bitrate != "" {
		args = append(args, "-b:a", enc.Bitrate)
	}
	args = append(args,
		"-ac", strconv.Itoa(enc.Channels),
		"-ar", strconv.Itoa(enc.SampleRate),
		outputPath,
	)
	return args
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

var _ Transcoder = (*FFmpeg)(nil)

// Package archive packs remote files into a single zip stream.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"ftpbrowser/session"
)

// ContentType is the media type of a built archive
const ContentType = "application/zip"

// ErrTooLarge is returned when the files exceed the configured MaxSize
var ErrTooLarge = errors.New("archive exceeds maximum size")

// FileSummary describes one packed file
type FileSummary struct {
	Name  string
	Bytes int64
}

// Summary describes a finished archive
type Summary struct {
	Files      []FileSummary
	TotalBytes int64
}

// Assembler writes retrieved files into a zip archive, one entry per name.
type Assembler struct {
	// Level is the flate compression level (0-9)
	Level int
	// MaxSize caps the total uncompressed bytes; 0 means unlimited
	MaxSize uint64
	Logger  *zap.Logger
	Now     func() time.Time
}

// NewAssembler returns an assembler using the given compression level
func NewAssembler(level int, maxSize uint64, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{Level: level, MaxSize: maxSize, Logger: logger, Now: time.Now}
}

// Build retrieves every name in order through s and writes it as a zip entry
// to w. The first failure stops the build, leaving w without a central
// directory; the returned error matches session.ErrTransfer.
func (a *Assembler) Build(s session.Retriever, names []string, w io.Writer) (*Summary, error) {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, a.Level)
	})

	summary := &Summary{Files: make([]FileSummary, 0, len(names))}
	for _, name := range names {
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: a.now(),
		})
		if err != nil {
			return nil, transferError(name, fmt.Errorf("failed to create entry: %w", err))
		}

		dst := entry
		var limit *limitWriter
		if a.MaxSize > 0 {
			limit = &limitWriter{w: entry, remaining: a.MaxSize - uint64(summary.TotalBytes)}
			dst = limit
		}

		n, err := s.Retrieve(name, dst)
		if err != nil {
			if limit != nil && limit.exceeded {
				err = ErrTooLarge
			}
			a.logger().Warn("archive aborted", zap.String("file", name), zap.Error(err))
			return nil, transferError(name, err)
		}

		summary.Files = append(summary.Files, FileSummary{Name: name, Bytes: n})
		summary.TotalBytes += n
		a.logger().Debug("added archive entry", zap.String("file", name), zap.Int64("bytes", n))
	}

	if err := zw.Close(); err != nil {
		return nil, transferError("", fmt.Errorf("failed to finish archive: %w", err))
	}
	return summary, nil
}

// BuildBytes builds the archive in memory. No bytes are returned unless every
// file was retrieved.
func (a *Assembler) BuildBytes(s session.Retriever, names []string) ([]byte, *Summary, error) {
	var buf bytes.Buffer
	summary, err := a.Build(s, names, &buf)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), summary, nil
}

func transferError(name string, err error) error {
	return &session.Error{Kind: session.KindTransfer, Op: "archive", Path: name, Err: err}
}

func (a *Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Assembler) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// limitWriter fails once more than remaining bytes are written
type limitWriter struct {
	w         io.Writer
	remaining uint64
	exceeded  bool
}

func (l *limitWriter) Write(p []byte) (int, error) {
	if uint64(len(p)) > l.remaining {
		l.exceeded = true
		return 0, ErrTooLarge
	}
	n, err := l.w.Write(p)
	l.remaining -= uint64(n)
	return n, err
}

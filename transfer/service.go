// Package transfer is the entry point for browsing and downloading: every
// call opens its own FTP session, does one job and closes the session.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"ftpbrowser/archive"
	"ftpbrowser/browse"
	"ftpbrowser/config"
	"ftpbrowser/perfmetrics"
	"ftpbrowser/session"
)

// DefaultArchiveName is used when the configuration does not name the archive
const DefaultArchiveName = "ftp_files.zip"

var (
	// ErrValidation is matched by every request rejected before connecting
	ErrValidation = errors.New("invalid request")
	// ErrNoFiles means the download selected nothing
	ErrNoFiles = fmt.Errorf("%w: no files selected", ErrValidation)
	// ErrInvalidName means a selected name cannot name a file
	ErrInvalidName = fmt.Errorf("%w: invalid file name", ErrValidation)
)

// Archive is a fully built zip ready to hand to a client
type Archive struct {
	Name        string
	ContentType string
	Data        []byte
	Summary     *archive.Summary
}

// Opener starts a logged-in session
type Opener func(cfg config.FTPLoginConfig) (session.Session, error)

// Option customizes a Service
type Option func(*Service)

// WithOpener replaces the function used to open sessions
func WithOpener(open Opener) Option {
	return func(s *Service) { s.open = open }
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithLocation sets the time zone listing timestamps are read in. The
// default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithProgress registers a callback for per-file retrieval progress
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) { s.onProgress = fn }
}

// Service runs listings and archive downloads
type Service struct {
	cfg        *config.Config
	open       Opener
	log        *zap.Logger
	onProgress ProgressFunc
	location   *time.Location

	lister    *browse.Lister
	assembler *archive.Assembler
}

// NewService creates a service for cfg
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.open == nil {
		s.open = func(lc config.FTPLoginConfig) (session.Session, error) {
			return session.Open(lc, session.WithLogger(s.log))
		}
	}
	s.lister = browse.NewLister(s.log.Named("browse"))
	if s.location != nil {
		s.lister.Parser.Location = s.location
	}
	s.assembler = archive.NewAssembler(cfg.CompressionLevel, cfg.MaxArchiveSize, s.log.Named("archive"))
	return s
}

// ArchiveName returns the file name archives are delivered under
func (s *Service) ArchiveName() string {
	if s.cfg.ArchiveName == "" {
		return DefaultArchiveName
	}
	return s.cfg.ArchiveName
}

func (s *Service) connect(creds config.Credentials) (session.Session, error) {
	sess, err := s.open(creds.LoginConfig(s.cfg.Timeout))
	perfmetrics.RecordSession(err == nil)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ListDirectory lists path on the server. An empty path lists the login
// directory.
func (s *Service) ListDirectory(creds config.Credentials, path string) (*browse.Result, error) {
	sess, err := s.connect(creds)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	res, err := s.lister.List(sess, path)
	perfmetrics.RecordListing(err == nil)
	if err != nil {
		s.log.Info("listing failed", zap.Object("ftp", creds), zap.String("path", path), zap.Error(err))
		return nil, err
	}

	s.log.Debug("listed directory",
		zap.Object("ftp", creds),
		zap.String("path", res.Path),
		zap.Int("entries", len(res.Entries)),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// DownloadArchive retrieves names from dir into an in-memory zip. Nothing is
// returned unless every file was retrieved.
func (s *Service) DownloadArchive(creds config.Credentials, dir string, names []string) (*Archive, error) {
	var data []byte
	summary, err := s.buildArchive(creds, dir, names, func(r session.Retriever, names []string) (*archive.Summary, error) {
		var (
			summary *archive.Summary
			err     error
		)
		data, summary, err = s.assembler.BuildBytes(r, names)
		return summary, err
	})
	if err != nil {
		return nil, err
	}
	return &Archive{
		Name:        s.ArchiveName(),
		ContentType: archive.ContentType,
		Data:        data,
		Summary:     summary,
	}, nil
}

// WriteArchive streams the zip of names to w. On error w may hold a partial,
// unterminated archive that the caller must discard.
func (s *Service) WriteArchive(creds config.Credentials, dir string, names []string, w io.Writer) (*archive.Summary, error) {
	return s.buildArchive(creds, dir, names, func(r session.Retriever, names []string) (*archive.Summary, error) {
		return s.assembler.Build(r, names, w)
	})
}

type buildFunc func(r session.Retriever, names []string) (*archive.Summary, error)

// buildArchive validates names, opens one session, moves to dir and hands the
// metered session to build
func (s *Service) buildArchive(creds config.Credentials, dir string, names []string, build buildFunc) (*archive.Summary, error) {
	names, err := ValidateNames(names)
	if err != nil {
		return nil, err
	}

	sess, err := s.connect(creds)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := browse.Navigate(sess, dir); err != nil {
		perfmetrics.RecordArchive(0, false)
		return nil, err
	}

	start := time.Now()
	summary, err := build(&meteredSession{Session: sess, onProgress: s.onProgress}, names)
	perfmetrics.RecordArchive(totalBytes(summary), err == nil)
	if err != nil {
		s.log.Warn("archive failed", zap.Object("ftp", creds), zap.String("dir", dir), zap.Error(err))
		return nil, err
	}
	elapsed := time.Since(start)

	s.log.Info("archive built",
		zap.Object("ftp", creds),
		zap.String("dir", dir),
		zap.Int("files", len(summary.Files)),
		zap.Int64("bytes", summary.TotalBytes),
		zap.Duration("took", elapsed))

	if s.cfg.PerfLogDir != "" {
		rec := perfmetrics.Record{
			Host:     creds.Address(),
			Archive:  s.ArchiveName(),
			Files:    len(summary.Files),
			Bytes:    summary.TotalBytes,
			Duration: elapsed,
		}
		if err := perfmetrics.LogArchiveToCSV(s.cfg.PerfLogDir, rec); err != nil {
			s.log.Warn("failed to write performance log", zap.Error(err))
		}
	}
	return summary, nil
}

// ValidateNames checks a download selection and drops repeated names,
// keeping the first occurrence.
func ValidateNames(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, ErrNoFiles
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || trimmed == "." || trimmed == ".." {
			return nil, fmt.Errorf("%w %q", ErrInvalidName, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

func totalBytes(s *archive.Summary) int64 {
	if s == nil {
		return 0
	}
	return s.TotalBytes
}

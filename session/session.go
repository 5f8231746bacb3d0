// Package session owns one authenticated FTP connection for the lifetime of a
// single logical operation (one listing or one archive build).
package session

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"

	"ftpbrowser/config"
)

// Navigator is the part of a session needed to produce a listing
type Navigator interface {
	ChangeDir(path string) error
	CurrentDir() (string, error)
	ListLines() ([]string, error)
}

// Retriever is the part of a session needed to fetch file bytes
type Retriever interface {
	Retrieve(name string, dst io.Writer) (int64, error)
}

// Session is everything a logical operation may do with its connection
type Session interface {
	Navigator
	Retriever
	Close() error
}

// Option customizes Open
type Option func(*options)

type options struct {
	logger *zap.Logger
	debug  io.Writer
}

// WithLogger sets the logger used for connection diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDebugOutput copies the FTP control conversation to w. PASS arguments
// are masked.
func WithDebugOutput(w io.Writer) Option {
	return func(o *options) { o.debug = w }
}

// Conn is an open, logged-in FTP session. It is not safe for concurrent use.
type Conn struct {
	client *ftp.ServerConn
	dialer *dialer
	addr   string
	log    *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ Session = (*Conn)(nil)

// Open connects to the server and logs in. Dial and login failures are both
// reported as ErrConnection; the failing step is only visible in the logs.
func Open(cfg config.FTPLoginConfig, opts ...Option) (*Conn, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(zap.Object("ftp", cfg))

	d := &dialer{timeout: cfg.Timeout}
	dialOpts := []ftp.DialOption{
		ftp.DialWithTimeout(cfg.Timeout),
		ftp.DialWithDialFunc(d.dial),
		ftp.DialWithDisabledMLSD(true),
	}
	if o.debug != nil {
		dialOpts = append(dialOpts, ftp.DialWithDebugOutput(&redactingWriter{w: o.debug}))
	}

	start := time.Now()
	client, err := ftp.Dial(cfg.Address, dialOpts...)
	if err != nil {
		log.Warn("ftp dial failed", zap.Error(err))
		return nil, &Error{Kind: KindConnection, Op: "dial", Err: err}
	}

	if err := client.Login(cfg.Username, cfg.Password); err != nil {
		log.Warn("ftp login rejected", zap.Error(err))
		_ = client.Quit()
		return nil, &Error{Kind: KindConnection, Op: "login", Err: err}
	}

	log.Info("ftp session opened", zap.Duration("took", time.Since(start)))
	return &Conn{client: client, dialer: d, addr: cfg.Address, log: log}, nil
}

// ChangeDir navigates to path
func (c *Conn) ChangeDir(path string) error {
	if err := c.client.ChangeDir(path); err != nil {
		return classify("cwd", path, err)
	}
	return nil
}

// CurrentDir returns the server's canonical working directory
func (c *Conn) CurrentDir() (string, error) {
	dir, err := c.client.CurrentDir()
	if err != nil {
		return "", &Error{Kind: KindTransfer, Op: "pwd", Err: err}
	}
	return dir, nil
}

// ListLines issues LIST for the current directory and returns the raw lines
// in the order the server sent them. jlaffaye/ftp parses listings on its own,
// so the raw data stream is recorded at the connection level instead.
func (c *Conn) ListLines() ([]string, error) {
	var raw bytes.Buffer
	stop := c.dialer.record(&raw)
	_, err := c.client.List("")
	stop()
	if err != nil {
		return nil, classify("list", "", err)
	}

	var lines []string
	scanner := bufio.NewScanner(&raw)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Kind: KindTransfer, Op: "list", Err: err}
	}
	return lines, nil
}

// Retrieve downloads name in binary mode and copies all of it into dst.
// A refused RETR is ErrPermission; anything failing once data flows is
// ErrTransfer.
func (c *Conn) Retrieve(name string, dst io.Writer) (int64, error) {
	resp, err := c.client.Retr(name)
	if err != nil {
		return 0, classify("retr", name, err)
	}

	n, copyErr := io.Copy(dst, resp)
	closeErr := resp.Close()
	if copyErr != nil {
		return n, &Error{Kind: KindTransfer, Op: "retr", Path: name, Err: copyErr}
	}
	if closeErr != nil {
		return n, &Error{Kind: KindTransfer, Op: "retr", Path: name, Err: closeErr}
	}

	c.log.Debug("retrieved file", zap.String("file", name), zap.Int64("bytes", n))
	return n, nil
}

// Close sends QUIT and releases the connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.client.Quit()
		if c.closeErr != nil && !errors.Is(c.closeErr, io.EOF) {
			c.log.Debug("ftp quit failed", zap.Error(c.closeErr))
		}
		c.log.Debug("ftp session closed")
	})
	return c.closeErr
}

// Addr returns the host:port the session is connected to
func (c *Conn) Addr() string {
	return c.addr
}

// redactingWriter masks PASS arguments in the protocol trace
type redactingWriter struct {
	w io.Writer
}

func (r *redactingWriter) Write(p []byte) (int, error) {
	if !bytes.Contains(p, []byte("PASS ")) {
		return r.w.Write(p)
	}
	lines := strings.SplitAfter(string(p), "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "PASS "); idx >= 0 {
			end := strings.TrimRight(line[idx:], "\r\n")
			lines[i] = line[:idx] + "PASS ****" + line[idx+len(end):]
		}
	}
	if _, err := io.WriteString(r.w, strings.Join(lines, "")); err != nil {
		return 0, err
	}
	return len(p), nil
}

// String describes the session for logs
func (c *Conn) String() string {
	return fmt.Sprintf("ftp session %s", c.addr)
}

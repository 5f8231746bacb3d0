// Package ftptest runs an in-process FTP server over an in-memory tree, for
// tests that need a real control and data connection.
package ftptest

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gonzalop/ftp/server"
)

// Server is a gonzalop/ftp server with a read-only memory driver. Every
// command the server receives is kept for inspection; PASS arguments arrive
// already masked.
type Server struct {
	User     string
	Password string
	// ModTime is the timestamp reported for every entry
	ModTime time.Time

	ftp      *server.Server
	listener net.Listener
	served   chan struct{}
	once     sync.Once

	mu       sync.Mutex
	root     *node
	home     string
	denied   map[string]bool
	aborts   map[string]bool
	commands []string
	sessions int
	open     int
	logins   int
}

// NewServer starts a server on a random loopback port accepting user/pass
func NewServer(user, pass string) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %v", err)
	}

	s := &Server{
		User:     user,
		Password: pass,
		ModTime:  time.Now().UTC().Add(-time.Hour).Truncate(time.Minute),
		served:   make(chan struct{}),
		root:     &node{name: "/", isDir: true},
		home:     "/",
		denied:   make(map[string]bool),
		aborts:   make(map[string]bool),
	}

	s.ftp, err = server.NewServer(ln.Addr().String(),
		server.WithDriver(&driver{srv: s}),
		server.WithLogger(slog.New(&commandLog{srv: s})),
		server.WithMaxIdleTime(time.Minute),
		server.WithDisableMLSD(true),
	)
	if err != nil {
		ln.Close()
		return nil, err
	}

	s.listener = &countingListener{Listener: ln, srv: s}
	go func() {
		defer close(s.served)
		_ = s.ftp.Serve(s.listener)
	}()
	return s, nil
}

// Addr returns host:port of the control listener
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close stops the server, drops all connections and waits for the sessions
// to wind down. Safe to call more than once.
func (s *Server) Close() {
	s.once.Do(func() {
		_ = s.ftp.Shutdown()
		<-s.served
		s.WaitIdle(time.Second)
	})
}

// WaitIdle blocks until every control connection accepted so far has been
// closed by the server, or timeout passes. It reports whether the server
// went idle. Commands are recorded before their session ends, so once this
// returns true Commands holds everything the clients sent.
func (s *Server) WaitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		open := s.open
		s.mu.Unlock()
		if open == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// SetHome sets the directory a session starts in after login, creating it
func (s *Server) SetHome(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = cleanPath(p)
	s.mkdirAll(p)
	s.home = p
}

// AddDir creates a directory and any missing parents
func (s *Server) AddDir(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mkdirAll(cleanPath(p))
}

// AddFile creates a file, creating parent directories as needed
func (s *Server) AddFile(p string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = cleanPath(p)
	dir := s.mkdirAll(path.Dir(p))
	name := path.Base(p)
	if existing := dir.child(name); existing != nil {
		existing.data = data
		return
	}
	dir.children = append(dir.children, &node{name: name, data: data})
}

// Deny makes CWD, LIST and RETR on p fail with 550
func (s *Server) Deny(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied[cleanPath(p)] = true
}

// AbortTransfer makes RETR of p send half the file and then fail with 426
func (s *Server) AbortTransfer(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborts[cleanPath(p)] = true
}

// Sessions returns the number of control connections accepted so far
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}

// Logins returns the number of successful logins so far
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Commands returns every command received, in order
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

func (s *Server) record(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, line)
}

// countingListener tracks control connection lifetimes
type countingListener struct {
	net.Listener
	srv *Server
}

func (l *countingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	l.srv.mu.Lock()
	l.srv.sessions++
	l.srv.open++
	l.srv.mu.Unlock()
	return &countedConn{Conn: conn, srv: l.srv}, nil
}

type countedConn struct {
	net.Conn
	srv  *Server
	once sync.Once
}

func (c *countedConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() {
		c.srv.mu.Lock()
		c.srv.open--
		c.srv.mu.Unlock()
	})
	return err
}

// commandLog is a slog.Handler that keeps the "command received" records
// the server emits at debug level and drops everything else
type commandLog struct {
	srv *Server
}

func (h *commandLog) Enabled(context.Context, slog.Level) bool { return true }

func (h *commandLog) Handle(_ context.Context, r slog.Record) error {
	if r.Message != "command received" {
		return nil
	}
	var cmd, arg string
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "cmd":
			cmd = a.Value.String()
		case "arg":
			arg = a.Value.String()
		}
		return true
	})
	if arg != "" {
		cmd += " " + arg
	}
	h.srv.record(cmd)
	return nil
}

func (h *commandLog) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *commandLog) WithGroup(string) slog.Handler { return h }

func cleanPath(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

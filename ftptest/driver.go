package ftptest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gonzalop/ftp/server"
)

var errAborted = errors.New("ftptest: transfer aborted")

// node is a file or a directory
type node struct {
	name     string
	isDir    bool
	data     []byte
	children []*node
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// lookup returns the node at p; callers hold mu
func (s *Server) lookup(p string) *node {
	if p == "/" {
		return s.root
	}
	cur := s.root
	for _, part := range strings.Split(strings.Trim(p, "/"), "/") {
		if cur == nil || !cur.isDir {
			return nil
		}
		cur = cur.child(part)
	}
	return cur
}

// mkdirAll returns the directory at p, creating it; callers hold mu
func (s *Server) mkdirAll(p string) *node {
	cur := s.root
	if p == "/" {
		return cur
	}
	for _, part := range strings.Split(strings.Trim(p, "/"), "/") {
		next := cur.child(part)
		if next == nil {
			next = &node{name: part, isDir: true}
			cur.children = append(cur.children, next)
		}
		cur = next
	}
	return cur
}

// driver authenticates the single configured user
type driver struct {
	srv *Server
}

func (d *driver) Authenticate(user, pass, _ string) (server.ClientContext, error) {
	d.srv.mu.Lock()
	defer d.srv.mu.Unlock()
	if user != d.srv.User || pass != d.srv.Password {
		return nil, os.ErrPermission
	}
	d.srv.logins++
	return &clientContext{srv: d.srv, cwd: d.srv.home}, nil
}

// clientContext is one logged-in session's view of the tree. Writes are
// refused.
type clientContext struct {
	srv *Server
	cwd string
}

var _ server.ClientContext = (*clientContext)(nil)

func (c *clientContext) resolve(p string) string {
	if p == "" {
		return c.cwd
	}
	if !path.IsAbs(p) {
		p = path.Join(c.cwd, p)
	}
	return path.Clean(p)
}

// stat returns the node at p, honoring Deny; callers hold mu
func (c *clientContext) stat(p string) (*node, error) {
	if c.srv.denied[p] {
		return nil, os.ErrPermission
	}
	n := c.srv.lookup(p)
	if n == nil {
		return nil, os.ErrNotExist
	}
	return n, nil
}

func (c *clientContext) ChangeDir(p string) error {
	target := c.resolve(p)

	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	n, err := c.stat(target)
	if err != nil {
		return err
	}
	if !n.isDir {
		return os.ErrNotExist
	}
	c.cwd = target
	return nil
}

func (c *clientContext) GetWd() (string, error) {
	return c.cwd, nil
}

func (c *clientContext) ListDir(p string) ([]os.FileInfo, error) {
	target := c.resolve(p)

	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	dir, err := c.stat(target)
	if err != nil {
		return nil, err
	}
	if !dir.isDir {
		return nil, os.ErrNotExist
	}
	infos := make([]os.FileInfo, 0, len(dir.children))
	for _, child := range dir.children {
		infos = append(infos, c.srv.info(child))
	}
	return infos, nil
}

func (c *clientContext) OpenFile(p string, flag int) (io.ReadWriteCloser, error) {
	if flag != os.O_RDONLY {
		return nil, os.ErrPermission
	}
	target := c.resolve(p)

	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	n, err := c.stat(target)
	if err != nil {
		return nil, err
	}
	if n.isDir {
		return nil, os.ErrNotExist
	}
	if c.srv.aborts[target] {
		return &abortingFile{data: n.data[:len(n.data)/2]}, nil
	}
	return &memFile{Reader: bytes.NewReader(n.data)}, nil
}

func (c *clientContext) GetFileInfo(p string) (os.FileInfo, error) {
	target := c.resolve(p)

	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	n, err := c.stat(target)
	if err != nil {
		return nil, err
	}
	return c.srv.info(n), nil
}

func (c *clientContext) MakeDir(string) error                   { return os.ErrPermission }
func (c *clientContext) RemoveDir(string) error                 { return os.ErrPermission }
func (c *clientContext) DeleteFile(string) error                { return os.ErrPermission }
func (c *clientContext) Rename(string, string) error            { return os.ErrPermission }
func (c *clientContext) SetTime(string, time.Time) error        { return os.ErrPermission }
func (c *clientContext) Chmod(string, os.FileMode) error        { return os.ErrPermission }
func (c *clientContext) GetHash(string, string) (string, error) { return "", os.ErrPermission }
func (c *clientContext) Close() error                           { return nil }
func (c *clientContext) GetSettings() *server.Settings          { return nil }

// info describes n for LIST; callers hold mu
func (s *Server) info(n *node) os.FileInfo {
	return fileInfo{node: n, modTime: s.ModTime}
}

type fileInfo struct {
	node    *node
	modTime time.Time
}

func (fi fileInfo) Name() string { return fi.node.name }

func (fi fileInfo) Size() int64 {
	if fi.node.isDir {
		return 4096
	}
	return int64(len(fi.node.data))
}

func (fi fileInfo) Mode() os.FileMode {
	if fi.node.isDir {
		return os.ModeDir | 0o755
	}
	return 0o644
}

func (fi fileInfo) ModTime() time.Time { return fi.modTime }
func (fi fileInfo) IsDir() bool        { return fi.node.isDir }
func (fi fileInfo) Sys() any           { return nil }

// memFile serves a file's bytes; it seeks for REST
type memFile struct {
	*bytes.Reader
}

func (f *memFile) Write([]byte) (int, error) { return 0, os.ErrPermission }
func (f *memFile) Close() error              { return nil }

// abortingFile yields its data and then fails the read
type abortingFile struct {
	data []byte
	off  int
}

func (f *abortingFile) Read(p []byte) (int, error) {
	if f.off >= len(f.data) {
		return 0, errAborted
	}
	n := copy(p, f.data[f.off:])
	f.off += n
	return n, nil
}

func (f *abortingFile) Write([]byte) (int, error) { return 0, os.ErrPermission }
func (f *abortingFile) Close() error              { return nil }

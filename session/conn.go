package session

import (
	"io"
	"net"
	"sync"
	"time"
)

// timeoutConn refreshes an idle deadline before every read and write so that
// a stalled server surfaces as a timeout instead of hanging the operation.
// When sink is set, every byte read is copied into it.
type timeoutConn struct {
	net.Conn
	timeout time.Duration
	sink    io.Writer
}

func (c *timeoutConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	n, err := c.Conn.Read(p)
	if n > 0 && c.sink != nil {
		_, _ = c.sink.Write(p[:n])
	}
	return n, err
}

func (c *timeoutConn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	return c.Conn.Write(p)
}

// dialer hands jlaffaye/ftp its connections. The first dial is the control
// connection; every later dial is a data connection and picks up whatever
// recorder is active at that moment.
type dialer struct {
	timeout time.Duration

	mu       sync.Mutex
	dials    int
	recorder io.Writer
}

func (d *dialer) dial(network, address string) (net.Conn, error) {
	nd := net.Dialer{Timeout: d.timeout}
	conn, err := nd.Dial(network, address)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.dials++
	var sink io.Writer
	if d.dials > 1 {
		sink = d.recorder
	}
	d.mu.Unlock()

	return &timeoutConn{Conn: conn, timeout: d.timeout, sink: sink}, nil
}

// record routes data connections opened until stop is called into w
func (d *dialer) record(w io.Writer) (stop func()) {
	d.mu.Lock()
	d.recorder = w
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		d.recorder = nil
		d.mu.Unlock()
	}
}

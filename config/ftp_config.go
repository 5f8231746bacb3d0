package config

import (
	"net"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultFTPPort is appended to hosts given without a port
const DefaultFTPPort = "21"

// FTPLoginConfig holds FTP connection credentials and settings.
type FTPLoginConfig struct {
	Address  string // Example: "ftp.gnu.org:21"
	Username string
	Password string
	Timeout  time.Duration
}

// Credentials are the per-request login details supplied by a caller
type Credentials struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Address returns host:port, defaulting the port to 21
func (c Credentials) Address() string {
	if _, _, err := net.SplitHostPort(c.Host); err == nil {
		return c.Host
	}
	return net.JoinHostPort(c.Host, DefaultFTPPort)
}

// LoginConfig turns the credentials into a dial configuration
func (c Credentials) LoginConfig(timeout time.Duration) FTPLoginConfig {
	return FTPLoginConfig{
		Address:  c.Address(),
		Username: c.Username,
		Password: c.Password,
		Timeout:  timeout,
	}
}

// String never includes the password
func (c Credentials) String() string {
	return c.Username + "@" + c.Host
}

// MarshalLogObject implements zapcore.ObjectMarshaler without the password
func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("host", c.Host)
	enc.AddString("user", c.Username)
	return nil
}

// MarshalLogObject implements zapcore.ObjectMarshaler without the password
func (c FTPLoginConfig) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("address", c.Address)
	enc.AddString("user", c.Username)
	enc.AddDuration("timeout", c.Timeout)
	return nil
}

package session

import (
	"errors"
	"fmt"
	"net/textproto"
)

// Kind tags the failure class of a session operation
type Kind int

const (
	// KindConnection covers unreachable hosts, timeouts during connect and
	// rejected logins.
	KindConnection Kind = iota + 1
	// KindPermission means the server refused a path or file.
	KindPermission
	// KindTransfer means a listing or retrieval failed after the session was up.
	KindTransfer
)

// Sentinels matched with errors.Is against any *Error of the same kind.
var (
	ErrConnection = errors.New("ftp connection failed")
	ErrPermission = errors.New("ftp permission denied")
	ErrTransfer   = errors.New("ftp transfer failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindPermission:
		return ErrPermission
	case KindTransfer:
		return ErrTransfer
	default:
		return nil
	}
}

// String returns a short name for the kind
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindPermission:
		return "permission"
	case KindTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error describes a failed session operation
type Error struct {
	Kind Kind
	Op   string // "dial", "login", "cwd", "pwd", "list", "retr"
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPermission) and friends match by kind
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the kind of the outermost *Error in err's chain, or 0
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// replyCode extracts the FTP reply code from a textproto error, or 0
func replyCode(err error) int {
	var te *textproto.Error
	if errors.As(err, &te) {
		return te.Code
	}
	return 0
}

// classify maps a failed command to permission or transfer. Any negative
// completion reply to a path command (4xx/5xx) counts as a refusal; everything
// else (I/O errors, timeouts) is a transfer failure.
func classify(op, path string, err error) *Error {
	kind := KindTransfer
	if code := replyCode(err); code >= 400 && code < 600 {
		kind = KindPermission
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

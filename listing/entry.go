package listing

import (
	"fmt"
	"time"
)

// Kind classifies a listing entry for display
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindParent
)

// ParentName is the display name of the synthetic "go to parent" entry
const ParentName = ".."

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindParent:
		return "parent"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind as its name so JSON output stays readable
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func kindOf(isDir, synthetic bool) Kind {
	switch {
	case synthetic:
		return KindParent
	case isDir:
		return KindDirectory
	default:
		return KindFile
	}
}

// Entry is one normalized directory entry
type Entry struct {
	Name    string
	IsDir   bool
	Kind    Kind
	Size    *uint64    // nil for directories and the parent entry
	ModTime *time.Time // nil for the parent entry
	Raw     string     // listing line the entry was parsed from
}

// ParentEntry builds the synthetic ".." entry prepended to non-root listings
func ParentEntry() Entry {
	return Entry{
		Name:  ParentName,
		IsDir: true,
		Kind:  kindOf(true, true),
	}
}

// IsParent reports whether the entry is the synthetic parent
func (e Entry) IsParent() bool {
	return e.Kind == KindParent
}

// SizeDisplay returns the human-readable size, or "" when the entry has none
func (e Entry) SizeDisplay() string {
	if e.Size == nil || e.IsDir {
		return ""
	}
	return FormatSize(*e.Size)
}

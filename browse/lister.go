// Package browse turns a session's LIST output into ordered listing entries.
package browse

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"ftpbrowser/listing"
	"ftpbrowser/perfmetrics"
	"ftpbrowser/session"
)

// Result is one directory listing
type Result struct {
	// Path is the server's canonical working directory after navigation.
	Path    string
	Entries []listing.Entry
	// Skipped counts raw lines that could not be parsed.
	Skipped int
}

// Lister drives the listing command of a session
type Lister struct {
	Parser *listing.Parser
	Logger *zap.Logger
}

// NewLister creates a lister with the default parser
func NewLister(logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{Parser: listing.NewParser(), Logger: logger}
}

// List navigates to path (if any), lists it and parses every line. Entries
// keep the server's order; a ".." entry is prepended outside the root.
func (l *Lister) List(s session.Navigator, path string) (*Result, error) {
	if err := Navigate(s, path); err != nil {
		return nil, err
	}

	cwd, err := s.CurrentDir()
	if err != nil {
		return nil, err
	}

	lines, err := s.ListLines()
	if err != nil {
		return nil, err
	}

	result := &Result{Path: cwd, Entries: make([]listing.Entry, 0, len(lines)+1)}
	if !isRoot(cwd) {
		result.Entries = append(result.Entries, listing.ParentEntry())
	}

	for _, line := range lines {
		entry, ok := l.parser().Parse(line)
		if !ok {
			result.Skipped++
			l.logger().Debug("skipping unparseable listing line",
				zap.String("dir", cwd), zap.String("line", line))
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	perfmetrics.RecordSkippedLines(result.Skipped)
	return result, nil
}

// Navigate changes into path after trimming surrounding slashes. An empty
// path stays in the current directory; a path made only of slashes goes to
// the root.
func Navigate(s session.Navigator, path string) error {
	if path == "" {
		return nil
	}
	target := strings.Trim(path, "/")
	if target == "" {
		target = "/"
	}
	return s.ChangeDir(target)
}

// SortForDisplay orders entries for presentation: parent first, then
// directories, then files, each by name. The input slice is not modified.
func SortForDisplay(entries []listing.Entry) []listing.Entry {
	out := make([]listing.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return rank(out[i].Kind) < rank(out[j].Kind)
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func rank(k listing.Kind) int {
	switch k {
	case listing.KindParent:
		return 0
	case listing.KindDirectory:
		return 1
	default:
		return 2
	}
}

func isRoot(dir string) bool {
	return dir == "" || dir == "/"
}

func (l *Lister) parser() *listing.Parser {
	if l.Parser == nil {
		l.Parser = listing.NewParser()
	}
	return l.Parser
}

func (l *Lister) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

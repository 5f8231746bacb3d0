package listing

import (
	"strconv"
	"strings"
	"time"
)

// minFields is the number of whitespace tokens in a UNIX-style LIST line:
// perms links owner group size month day time/year name
const minFields = 9

const (
	recentLayout = "Jan 2 15:04" // year omitted, implies the current year
	olderLayout  = "Jan 2 2006"  // time omitted
)

// Parser converts raw UNIX-style LIST lines into entries
type Parser struct {
	// Now supplies the current time for year inference and the date fallback.
	Now func() time.Time
	// Location is applied to parsed timestamps. Defaults to UTC.
	Location *time.Location
}

// NewParser creates a parser using the wall clock and UTC
func NewParser() *Parser {
	return &Parser{Now: time.Now, Location: time.UTC}
}

var defaultParser = NewParser()

// ParseLine parses a line with the default parser
func ParseLine(line string) (Entry, bool) {
	return defaultParser.Parse(line)
}

// Parse decomposes one listing line. The boolean is false when the line does
// not carry the minimum fields; such lines produce no entry.
func (p *Parser) Parse(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return Entry{}, false
	}

	isDir := strings.HasPrefix(fields[0], "d")

	entry := Entry{
		Name:  strings.TrimSpace(strings.Join(fields[8:], " ")),
		IsDir: isDir,
		Kind:  kindOf(isDir, false),
		Raw:   line,
	}

	// Directory sizes are block counts, not content sizes
	if !isDir {
		size, err := strconv.ParseUint(fields[4], 10, 64)
		if err != nil {
			return Entry{}, false
		}
		entry.Size = &size
	}

	modTime := p.parseDate(strings.Join(fields[5:8], " "))
	entry.ModTime = &modTime

	return entry, true
}

// parseDate tries the "month day HH:MM" form, then "month day year", and
// falls back to now so that a bad date never drops an otherwise valid entry.
func (p *Parser) parseDate(field string) time.Time {
	now := p.now()
	loc := p.location()

	if t, err := time.ParseInLocation(recentLayout, field, loc); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	}
	if t, err := time.ParseInLocation(olderLayout, field, loc); err == nil {
		return t
	}
	return now
}

func (p *Parser) now() time.Time {
	if p.Now == nil {
		return time.Now().In(p.location())
	}
	return p.Now().In(p.location())
}

func (p *Parser) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

package listing

import (
	"testing"
	"time"
)

func fixedParser(now time.Time) *Parser {
	return &Parser{
		Now:      func() time.Time { return now },
		Location: time.UTC,
	}
}

func TestParseFileLine(t *testing.T) {
	p := fixedParser(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))

	entry, ok := p.Parse("-rw-r--r--   1 owner    group        1234 Jan 05 10:30 report.txt")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if entry.Name != "report.txt" {
		t.Errorf("expected name report.txt, got %q", entry.Name)
	}
	if entry.IsDir {
		t.Error("expected a file entry")
	}
	if entry.Kind != KindFile {
		t.Errorf("expected kind file, got %s", entry.Kind)
	}
	if entry.Size == nil || *entry.Size != 1234 {
		t.Fatalf("expected size 1234, got %v", entry.Size)
	}
	if got := entry.SizeDisplay(); got != "1.21 KB" {
		t.Errorf("expected size display 1.21 KB, got %q", got)
	}
}

func TestParseNameWithSpaces(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"single space", "-rw-r--r-- 1 u g 10 Jan 5 10:30 my file.txt", "my file.txt"},
		{"collapsed runs", "-rw-r--r-- 1 u g 10 Jan 5 10:30 my    big   file", "my big file"},
		{"trailing whitespace", "-rw-r--r-- 1 u g 10 Jan 5 10:30 notes.md   \t", "notes.md"},
		{"leading whitespace", "   -rw-r--r-- 1 u g 10 Jan 5 10:30 a b", "a b"},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := p.Parse(tt.line)
			if !ok {
				t.Fatalf("expected %q to parse", tt.line)
			}
			if entry.Name != tt.want {
				t.Errorf("expected name %q, got %q", tt.want, entry.Name)
			}
		})
	}
}

func TestParseDirectorySuppressesSize(t *testing.T) {
	entry, ok := ParseLine("drwxr-xr-x   2 owner    group        4096 Feb 10  2021 photos")
	if !ok {
		t.Fatal("expected directory line to parse")
	}
	if !entry.IsDir || entry.Kind != KindDirectory {
		t.Errorf("expected directory, got isDir=%v kind=%s", entry.IsDir, entry.Kind)
	}
	if entry.Size != nil {
		t.Errorf("expected no size for directory, got %d", *entry.Size)
	}
	if entry.SizeDisplay() != "" {
		t.Errorf("expected empty size display, got %q", entry.SizeDisplay())
	}

	// A garbage size column does not matter for directories
	if _, ok := ParseLine("drwxr-xr-x 2 owner group n/a Feb 10 2021 photos"); !ok {
		t.Error("expected directory with non-numeric size to parse")
	}
}

func TestParseTooFewFields(t *testing.T) {
	lines := []string{
		"",
		"total 24",
		"-rw-r--r-- 1 owner group 10 Jan 5 10:30",
		"drwxr-xr-x 2 owner 4096 Feb 10 2021 photos",
	}
	for _, line := range lines {
		if _, ok := ParseLine(line); ok {
			t.Errorf("expected %q to be rejected", line)
		}
	}
}

func TestParseRejectsBadFileSize(t *testing.T) {
	if _, ok := ParseLine("-rw-r--r-- 1 owner group big Jan 5 10:30 file.bin"); ok {
		t.Error("expected non-numeric file size to be rejected")
	}
	if _, ok := ParseLine("-rw-r--r-- 1 owner group -5 Jan 5 10:30 file.bin"); ok {
		t.Error("expected negative file size to be rejected")
	}
}

func TestParseDates(t *testing.T) {
	now := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	p := fixedParser(now)

	t.Run("recent", func(t *testing.T) {
		entry, ok := p.Parse("-rw-r--r-- 1 u g 1 Jan 5 10:30 a")
		if !ok {
			t.Fatal("expected parse")
		}
		want := time.Date(2026, time.January, 5, 10, 30, 0, 0, time.UTC)
		if !entry.ModTime.Equal(want) {
			t.Errorf("expected %v, got %v", want, *entry.ModTime)
		}
	})

	t.Run("with year", func(t *testing.T) {
		entry, ok := p.Parse("-rw-r--r-- 1 u g 1 Jan 5 2019 a")
		if !ok {
			t.Fatal("expected parse")
		}
		want := time.Date(2019, time.January, 5, 0, 0, 0, 0, time.UTC)
		if !entry.ModTime.Equal(want) {
			t.Errorf("expected %v, got %v", want, *entry.ModTime)
		}
	})

	t.Run("malformed falls back to now", func(t *testing.T) {
		entry, ok := p.Parse("-rw-r--r-- 1 u g 1 Foo 99 xx:yy a")
		if !ok {
			t.Fatal("a malformed date must not reject the entry")
		}
		if !entry.ModTime.Equal(now) {
			t.Errorf("expected fallback %v, got %v", now, *entry.ModTime)
		}
	})
}

func TestParseKeepsRawLine(t *testing.T) {
	line := "-rw-r--r-- 1 u g 7 Jan 5 10:30 raw.txt"
	entry, _ := ParseLine(line)
	if entry.Raw != line {
		t.Errorf("expected raw line to be kept, got %q", entry.Raw)
	}
}

func TestParentEntry(t *testing.T) {
	parent := ParentEntry()
	if parent.Name != ".." || !parent.IsDir || !parent.IsParent() {
		t.Errorf("unexpected parent entry %+v", parent)
	}
	if parent.Size != nil || parent.ModTime != nil {
		t.Error("parent entry must carry no size or timestamp")
	}
}

func TestKindText(t *testing.T) {
	for kind, want := range map[Kind]string{
		KindFile:      "file",
		KindDirectory: "directory",
		KindParent:    "parent",
	} {
		text, err := kind.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", kind, err)
		}
		if string(text) != want {
			t.Errorf("expected %q, got %q", want, text)
		}
	}
}

package terminal

import (
	"bytes"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/fatih/color"

	"ftpbrowser/archive"
	"ftpbrowser/browse"
	"ftpbrowser/config"
	"ftpbrowser/listing"
	"ftpbrowser/session"
)

func init() {
	color.NoColor = true
}

type saveCall struct {
	dir   string
	names []string
	dest  string
}

// fakeService resolves paths the way a fresh session does: from the login
// directory, with surrounding slashes trimmed.
type fakeService struct {
	home      string
	dirs      map[string]*browse.Result
	requested []string
	saves     []saveCall
	fail      error
}

func (f *fakeService) ListDirectory(creds config.Credentials, p string) (*browse.Result, error) {
	f.requested = append(f.requested, p)
	home := f.home
	if home == "" {
		home = "/"
	}
	abs := home
	if p != "" {
		if t := strings.Trim(p, "/"); t == "" {
			abs = "/"
		} else {
			abs = path.Join(home, t)
		}
	}
	res, ok := f.dirs[abs]
	if !ok {
		return nil, &session.Error{Kind: session.KindPermission, Op: "cwd", Path: abs, Err: errors.New("550")}
	}
	return res, nil
}

func (f *fakeService) SaveArchive(creds config.Credentials, dir string, names []string, dest string) (*archive.Summary, error) {
	f.saves = append(f.saves, saveCall{dir: dir, names: names, dest: dest})
	if f.fail != nil {
		return nil, f.fail
	}
	return &archive.Summary{Files: []archive.FileSummary{{Name: names[0], Bytes: 2048}}, TotalBytes: 2048}, nil
}

func (f *fakeService) ArchiveName() string { return "ftp_files.zip" }

func file(name string, size uint64) listing.Entry {
	mod := time.Date(2024, time.March, 1, 9, 15, 0, 0, time.UTC)
	return listing.Entry{Name: name, Kind: listing.KindFile, Size: &size, ModTime: &mod}
}

func dir(name string) listing.Entry {
	return listing.Entry{Name: name, IsDir: true, Kind: listing.KindDirectory}
}

func newShell(t *testing.T) (*Shell, *fakeService, *bytes.Buffer) {
	t.Helper()
	svc := &fakeService{dirs: map[string]*browse.Result{
		"/":    {Path: "/", Entries: []listing.Entry{file("readme.txt", 500), dir("pub")}},
		"/pub": {Path: "/pub", Entries: []listing.Entry{listing.ParentEntry(), file("data.csv", 2048)}},
	}}
	var out bytes.Buffer
	sh := NewShell(svc, config.Credentials{Host: "ftp.test", Username: "u"}, nil, &out, nil)
	sh.LocalDir = t.TempDir()
	return sh, svc, &out
}

func TestShellListSortsDirectoriesFirst(t *testing.T) {
	sh, _, out := newShell(t)
	sh.Execute("ls")

	text := out.String()
	pub := strings.Index(text, "pub/")
	readme := strings.Index(text, "readme.txt")
	if pub < 0 || readme < 0 || pub > readme {
		t.Errorf("expected pub/ before readme.txt, got:\n%s", text)
	}
	if !strings.Contains(text, "500.00 B") || !strings.Contains(text, "TXT") {
		t.Errorf("expected formatted size and type, got:\n%s", text)
	}
}

func TestShellChangeDir(t *testing.T) {
	sh, _, out := newShell(t)

	sh.Execute("cd pub")
	if sh.Dir() != "/pub" {
		t.Fatalf("expected /pub, got %q", sh.Dir())
	}

	out.Reset()
	sh.Execute("pwd")
	if strings.TrimSpace(out.String()) != "/pub" {
		t.Errorf("unexpected pwd output %q", out.String())
	}

	sh.Execute("cd ..")
	if sh.Dir() != "/" {
		t.Errorf("expected /, got %q", sh.Dir())
	}

	out.Reset()
	sh.Execute("cd missing")
	if sh.Dir() != "/" || !strings.Contains(out.String(), "Error") {
		t.Errorf("failed cd must report and stay put, got %q in %q", out.String(), sh.Dir())
	}
}

func TestShellGet(t *testing.T) {
	sh, svc, out := newShell(t)
	sh.Execute("cd pub")
	sh.Execute(`get data.csv "my file.txt"`)

	if len(svc.saves) != 1 {
		t.Fatalf("expected one save, got %d", len(svc.saves))
	}
	call := svc.saves[0]
	if call.dir != "pub" || len(call.names) != 2 || call.names[1] != "my file.txt" {
		t.Errorf("unexpected save call %+v", call)
	}
	if call.dest != filepath.Join(sh.LocalDir, "ftp_files.zip") {
		t.Errorf("unexpected destination %q", call.dest)
	}
	if !strings.Contains(out.String(), "2.0 KiB") {
		t.Errorf("expected summary, got %q", out.String())
	}

	svc.fail = &session.Error{Kind: session.KindTransfer, Op: "archive", Path: "data.csv", Err: errors.New("426")}
	out.Reset()
	sh.Execute("get data.csv")
	if !strings.Contains(out.String(), "Download failed") {
		t.Errorf("expected failure message, got %q", out.String())
	}
}

func newHomeShell(t *testing.T) (*Shell, *fakeService) {
	t.Helper()
	svc := &fakeService{home: "/home/bob", dirs: map[string]*browse.Result{
		"/":              {Path: "/", Entries: []listing.Entry{dir("etc"), dir("home")}},
		"/etc":           {Path: "/etc", Entries: []listing.Entry{listing.ParentEntry(), file("motd", 10)}},
		"/home/bob":      {Path: "/home/bob", Entries: []listing.Entry{listing.ParentEntry(), dir("docs")}},
		"/home/bob/docs": {Path: "/home/bob/docs", Entries: []listing.Entry{listing.ParentEntry(), file("a.txt", 1)}},
	}}
	sh := NewShell(svc, config.Credentials{Host: "ftp.test", Username: "bob"}, nil, &bytes.Buffer{}, nil)
	sh.LocalDir = t.TempDir()
	return sh, svc
}

func TestShellLoginDirectory(t *testing.T) {
	sh, svc := newHomeShell(t)

	sh.Execute("ls")
	if sh.Dir() != "/home/bob" {
		t.Fatalf("expected the login directory, got %q", sh.Dir())
	}

	steps := []struct {
		input string
		sent  string
		dir   string
	}{
		{"cd docs", "docs", "/home/bob/docs"},
		{"cd ..", "", "/home/bob"},
		{"cd /etc", "../../etc", "/etc"},
		{"cd ../home/bob/docs", "docs", "/home/bob/docs"},
		{"cd /", "../..", "/"},
		{"cd /home/bob", "", "/home/bob"},
	}
	for _, step := range steps {
		svc.requested = nil
		sh.Execute(step.input)
		if len(svc.requested) != 1 || svc.requested[0] != step.sent {
			t.Errorf("%s: expected request %q, got %q", step.input, step.sent, svc.requested)
		}
		if sh.Dir() != step.dir {
			t.Errorf("%s: expected %q, got %q", step.input, step.dir, sh.Dir())
		}
	}

	svc.requested = nil
	sh.Execute("ls /etc")
	if len(svc.requested) != 1 || svc.requested[0] != "../../etc" || sh.Dir() != "/home/bob" {
		t.Errorf("ls of another directory must not move, sent %q, now in %q", svc.requested, sh.Dir())
	}

	sh.Execute("cd docs")
	sh.Execute("get a.txt")
	if len(svc.saves) != 1 || svc.saves[0].dir != "docs" {
		t.Errorf("expected download from docs, got %+v", svc.saves)
	}
}

func TestShellLearnsLoginDirectoryOnDemand(t *testing.T) {
	sh, svc := newHomeShell(t)

	sh.Execute("cd docs")
	if sh.Dir() != "/home/bob/docs" {
		t.Fatalf("expected /home/bob/docs, got %q", sh.Dir())
	}
	if len(svc.requested) != 2 || svc.requested[0] != "" || svc.requested[1] != "docs" {
		t.Errorf("expected the login directory to be listed first, got %q", svc.requested)
	}
}

func TestRelativePath(t *testing.T) {
	tests := []struct {
		base, target, want string
	}{
		{"/", "/", ""},
		{"/", "/pub", "pub"},
		{"/home/bob", "/home/bob", ""},
		{"/home/bob", "/home/bob/docs", "docs"},
		{"/home/bob", "/home", ".."},
		{"/home/bob", "/etc/ssl", "../../etc/ssl"},
		{"/home/bob", "/", "../.."},
		{"/home/bob/", "/home/bobby", "../bobby"},
	}
	for _, tt := range tests {
		if got := relativePath(tt.base, tt.target); got != tt.want {
			t.Errorf("relativePath(%q, %q) = %q, want %q", tt.base, tt.target, got, tt.want)
		}
	}
}

func TestShellExit(t *testing.T) {
	sh, _, _ := newShell(t)
	if sh.Execute("exit") {
		t.Error("exit should stop the shell")
	}
	if !sh.Execute("   ") {
		t.Error("blank input should keep the shell running")
	}
}

func TestShellTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.json")
	themes, err := NewThemeManager(path)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	sh := NewShell(&fakeService{}, config.Credentials{}, themes, &out, nil)

	sh.Execute("theme light")
	if themes.ThemeName() != "light" {
		t.Fatalf("expected light theme, got %q", themes.ThemeName())
	}

	reloaded, err := NewThemeManager(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.ThemeName() != "light" {
		t.Errorf("expected persisted light theme, got %q", reloaded.ThemeName())
	}

	if err := themes.SetTheme("neon"); err == nil {
		t.Error("expected unknown theme to fail")
	}
}

func TestNewThemeManagerWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "theme.json")
	tm, err := NewThemeManager(path)
	if err != nil {
		t.Fatal(err)
	}
	if tm.ThemeName() != "dark" {
		t.Errorf("expected dark default, got %q", tm.ThemeName())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default theme to be saved: %v", err)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		name  string
		args  []string
	}{
		{"ls", "ls", nil},
		{"  cd   pub  ", "cd", []string{"pub"}},
		{`get "a b.txt" c.txt`, "get", []string{"a b.txt", "c.txt"}},
		{"", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			if cmd.Name != tt.name || len(cmd.Args) != len(tt.args) {
				t.Fatalf("expected %q %q, got %+v", tt.name, tt.args, cmd)
			}
			for i := range tt.args {
				if cmd.Args[i] != tt.args[i] {
					t.Errorf("arg %d: expected %q, got %q", i, tt.args[i], cmd.Args[i])
				}
			}
		})
	}
}

func TestCompleter(t *testing.T) {
	c := NewCommandCompleter()
	c.UpdateListing([]listing.Entry{listing.ParentEntry(), dir("docs"), dir(".hidden"), file("data.csv", 1), file("draft.txt", 1)})

	complete := func(text string) []string {
		buf := prompt.NewBuffer()
		buf.InsertText(text, false, true)
		var out []string
		for _, s := range c.Completer(*buf.Document()) {
			out = append(out, s.Text)
		}
		return out
	}

	if got := complete("g"); len(got) != 1 || got[0] != "get" {
		t.Errorf("expected get, got %v", got)
	}
	if got := complete("cd d"); len(got) != 1 || got[0] != "docs" {
		t.Errorf("expected docs, got %v", got)
	}
	if got := complete("get d"); len(got) != 2 {
		t.Errorf("expected two files, got %v", got)
	}
	if got := complete("cd ."); len(got) != 2 {
		t.Errorf("expected dot directories when asked for, got %v", got)
	}
}

func TestTableEmpty(t *testing.T) {
	var out bytes.Buffer
	if err := NewTableFormatter(&out).FormatListing(nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Directory is empty") {
		t.Errorf("unexpected output %q", out.String())
	}
}

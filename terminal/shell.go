// Package terminal is the interactive FTP shell: themed output, listing
// tables and completion of remote names.
package terminal

import (
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"ftpbrowser/archive"
	"ftpbrowser/browse"
	"ftpbrowser/config"
)

// Service is what the shell needs from the transfer layer
type Service interface {
	ListDirectory(creds config.Credentials, path string) (*browse.Result, error)
	SaveArchive(creds config.Credentials, dir string, names []string, dest string) (*archive.Summary, error)
	ArchiveName() string
}

// Command is one parsed input line
type Command struct {
	Name string
	Args []string
}

// Shell runs commands against one remote host. Every command opens its own
// FTP session.
type Shell struct {
	svc      Service
	creds    config.Credentials
	out      io.Writer
	log      *zap.Logger
	themes   *ThemeManager
	table    *TableFormatter
	complete *CommandCompleter

	// LocalDir is where downloaded archives are written
	LocalDir string

	// home is the login directory; every path sent to the service is
	// relative to it because each command starts a fresh session there.
	home string
	cwd  string
}

// NewShell creates a shell writing to out
func NewShell(svc Service, creds config.Credentials, themes *ThemeManager, out io.Writer, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	if themes == nil {
		themes, _ = NewThemeManager("")
	}
	return &Shell{
		svc:      svc,
		creds:    creds,
		out:      out,
		log:      log,
		themes:   themes,
		table:    NewTableFormatter(out),
		complete: NewCommandCompleter(),
		LocalDir: ".",
	}
}

// Dir returns the absolute remote directory commands run in
func (s *Shell) Dir() string {
	switch {
	case s.cwd != "":
		return s.cwd
	case s.home != "":
		return s.home
	default:
		return "/"
	}
}

// Run starts the interactive prompt and blocks until exit
func (s *Shell) Run() {
	s.themes.PromptColor().Fprintf(s.out, "Connected to %s\n", s.creds)
	s.themes.TextColor().Fprintln(s.out, "Type 'help' for available commands")

	// Resolve the login directory and seed completion
	s.Execute("ls")

	p := prompt.New(
		func(input string) { s.Execute(input) },
		s.complete.Completer,
		prompt.OptionTitle("ftpbrowser"),
		prompt.OptionLivePrefix(func() (string, bool) {
			return "[FTP] " + s.Dir() + "> ", true
		}),
		prompt.OptionPrefixTextColor(prompt.Green),
		prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
		prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionCompletionWordSeparator(" "),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && strings.TrimSpace(in) == "exit"
		}),
	)
	p.Run()
}

// Execute runs one input line. It returns false when the shell should exit.
func (s *Shell) Execute(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return true
	}

	switch strings.ToLower(cmd.Name) {
	case "exit", "quit":
		return false
	case "ls":
		s.list(first(cmd.Args))
	case "cd":
		if len(cmd.Args) == 0 {
			s.themes.ErrorColor().Fprintln(s.out, "Usage: cd <path>")
			return true
		}
		s.changeDir(cmd.Args[0])
	case "pwd":
		s.themes.TextColor().Fprintln(s.out, s.Dir())
	case "get":
		s.get(cmd.Args)
	case "theme":
		s.setTheme(cmd.Args)
	case "help":
		s.help()
	default:
		s.themes.ErrorColor().Fprintf(s.out, "Unknown command: %s\n", cmd.Name)
	}
	return true
}

func (s *Shell) resolve(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join(s.Dir(), p)
}

// loginDir returns the login directory, listing it once if still unknown
func (s *Shell) loginDir() (string, error) {
	if s.home != "" {
		return s.home, nil
	}
	res, err := s.svc.ListDirectory(s.creds, "")
	if err != nil {
		return "", err
	}
	s.home = res.Path
	return s.home, nil
}

// target turns a shell path into the path the service navigates to from the
// login directory. The login directory itself becomes "".
func (s *Shell) target(p string) (string, error) {
	home, err := s.loginDir()
	if err != nil {
		return "", err
	}
	return relativePath(home, s.resolve(p)), nil
}

func (s *Shell) list(arg string) {
	var target string
	if arg != "" || s.cwd != "" {
		t, err := s.target(orDot(arg))
		if err != nil {
			s.themes.ErrorColor().Fprintf(s.out, "Error: %v\n", err)
			return
		}
		target = t
	}

	res, err := s.svc.ListDirectory(s.creds, target)
	if err != nil {
		s.log.Debug("ls failed", zap.String("path", target), zap.Error(err))
		s.themes.ErrorColor().Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if target == "" {
		s.home = res.Path
	}
	if arg == "" {
		s.cwd = res.Path
	}

	entries := browse.SortForDisplay(res.Entries)
	s.complete.UpdateListing(entries)
	s.themes.InfoColor().Fprintf(s.out, "\nDirectory of %s\n\n", res.Path)
	if err := s.table.FormatListing(entries); err != nil {
		s.themes.ErrorColor().Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *Shell) changeDir(arg string) {
	target, err := s.target(arg)
	if err != nil {
		s.themes.ErrorColor().Fprintf(s.out, "Error: %v\n", err)
		return
	}
	res, err := s.svc.ListDirectory(s.creds, target)
	if err != nil {
		s.themes.ErrorColor().Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.cwd = res.Path
	s.complete.UpdateListing(res.Entries)
	s.themes.SuccessColor().Fprintf(s.out, "Directory changed to %s\n", res.Path)
}

func (s *Shell) get(names []string) {
	if len(names) == 0 {
		s.themes.ErrorColor().Fprintln(s.out, "Usage: get <file>...")
		return
	}
	dir, err := s.target(".")
	if err != nil {
		s.themes.ErrorColor().Fprintf(s.out, "Download failed: %v\n", err)
		return
	}

	dest := filepath.Join(s.LocalDir, s.svc.ArchiveName())
	start := time.Now()
	summary, err := s.svc.SaveArchive(s.creds, dir, names, dest)
	if err != nil {
		s.themes.ErrorColor().Fprintf(s.out, "Download failed: %v\n", err)
		return
	}

	elapsed := time.Since(start)
	s.themes.SuccessColor().Fprintf(s.out, "Saved %d file(s), %s in %s to %s\n",
		len(summary.Files), humanize.IBytes(uint64(summary.TotalBytes)), elapsed.Round(time.Millisecond), dest)
}

func (s *Shell) setTheme(args []string) {
	if len(args) == 0 {
		s.themes.TextColor().Fprintf(s.out, "Current theme: %s\n", s.themes.ThemeName())
		return
	}
	if err := s.themes.SetTheme(args[0]); err != nil {
		s.themes.ErrorColor().Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.themes.SuccessColor().Fprintf(s.out, "Theme set to %s\n", args[0])
}

func (s *Shell) help() {
	c := s.themes.TextColor()
	c.Fprintln(s.out, "\nCommands:")
	c.Fprintln(s.out, "ls [path]        - List a remote directory")
	c.Fprintln(s.out, "cd <path>        - Change remote directory")
	c.Fprintln(s.out, "pwd              - Show remote directory")
	c.Fprintf(s.out, "get <file>...    - Download files into %s\n", s.svc.ArchiveName())
	c.Fprintln(s.out, "theme light|dark - Change terminal theme")
	c.Fprintln(s.out, "exit             - Leave the shell")
}

// ParseCommand splits input into a command and its arguments. Double quotes
// group words containing spaces.
func ParseCommand(input string) Command {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range strings.TrimSpace(input) {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case r == ' ' && !quoted:
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, current.String())
	}

	if len(args) == 0 {
		return Command{}
	}
	return Command{Name: args[0], Args: args[1:]}
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func orDot(p string) string {
	if p == "" {
		return "."
	}
	return p
}

// relativePath expresses the absolute path target relative to base, using
// ".." to climb. Equal paths yield "".
func relativePath(base, target string) string {
	from, to := segments(base), segments(target)
	i := 0
	for i < len(from) && i < len(to) && from[i] == to[i] {
		i++
	}
	parts := make([]string, 0, len(from)-i+len(to)-i)
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}

func segments(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

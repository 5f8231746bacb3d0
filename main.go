package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ftpbrowser/browse"
	"ftpbrowser/config"
	"ftpbrowser/logging"
	"ftpbrowser/perfmetrics"
	"ftpbrowser/terminal"
	"ftpbrowser/transfer"
	"ftpbrowser/web"
)

const usage = `Usage: ftpbrowser <command> [flags]

Commands:
  serve              run the web server
  shell              start the interactive FTP shell
  ls [path]          list a remote directory
  get [flags] file.. download files into one zip archive

Run 'ftpbrowser <command> --help' for the flags of a command.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("no command given")
	}

	switch args[0] {
	case "serve":
		return serve(args[1:])
	case "shell":
		return shell(args[1:])
	case "ls":
		return list(args[1:])
	case "get":
		return get(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// app is the state shared by every command
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	svc   *transfer.Service
	close func()
}

// login holds the connection flags of the client commands
type login struct {
	host string
	user string
}

func bindLogin(fs *flag.FlagSet) *login {
	l := &login{}
	fs.StringVarP(&l.host, "host", "H", os.Getenv("FTP_HOST"), "FTP server, host[:port] (defaults file if empty)")
	fs.StringVarP(&l.user, "user", "u", os.Getenv("FTP_USER"), "FTP user name (defaults file if empty)")
	return l
}

// credentials fills missing values from the defaults file and asks for the
// password unless FTP_PASSWORD is set.
func (l *login) credentials(cfg *config.Config) (config.Credentials, error) {
	defaults := config.LoadDefaults(cfg.DefaultsFile)
	creds := config.Credentials{Host: l.host, Username: l.user}
	if creds.Host == "" {
		creds.Host = defaults.Host
	}
	if creds.Username == "" {
		creds.Username = defaults.Username
	}

	if pass, ok := os.LookupEnv("FTP_PASSWORD"); ok {
		creds.Password = pass
		return creds, nil
	}
	pass, err := terminal.ReadPassword(os.Stderr, fmt.Sprintf("Password for %s: ", creds))
	if err != nil {
		return creds, err
	}
	creds.Password = pass
	return creds, nil
}

func newApp(cfg *config.Config, opts ...transfer.Option) (*app, error) {
	log, closeLog, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	opts = append([]transfer.Option{
		transfer.WithLogger(log),
		transfer.WithLocation(cfg.Location),
	}, opts...)
	return &app{cfg: cfg, log: log, svc: transfer.NewService(cfg, opts...), close: closeLog}, nil
}

func parse(name string, args []string, extra func(fs *flag.FlagSet)) (*config.Config, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg, err := config.Bind(fs)
	if err != nil {
		return nil, nil, err
	}
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := cfg.Finish(fs); err != nil {
		return nil, nil, err
	}
	return cfg, fs, nil
}

func serve(args []string) error {
	cfg, _, err := parse("serve", args, nil)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	defaults := config.LoadDefaults(cfg.DefaultsFile)
	srv := web.NewServer(cfg, a.svc, defaults, a.log.Named("web"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{{Addr: cfg.ListenAddr, Handler: srv.Router()}}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", perfmetrics.Handler())
		servers = append(servers, &http.Server{Addr: cfg.MetricsAddr, Handler: mux})
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, hs := range servers {
		hs := hs
		g.Go(func() error {
			a.log.Info("listening", zap.String("addr", hs.Addr))
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", hs.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, hs := range servers {
			if err := hs.Shutdown(shutdownCtx); err != nil {
				a.log.Warn("shutdown failed", zap.String("addr", hs.Addr), zap.Error(err))
			}
		}
		return nil
	})

	return g.Wait()
}

func shell(args []string) error {
	var l *login
	cfg, _, err := parse("shell", args, func(fs *flag.FlagSet) { l = bindLogin(fs) })
	if err != nil {
		return err
	}
	creds, err := l.credentials(cfg)
	if err != nil {
		return err
	}

	// Keep informational logs out of the prompt
	if cfg.LogLevel == "info" || cfg.LogLevel == "debug" {
		cfg.LogLevel = "warn"
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	themes, err := terminal.NewThemeManager(cfg.ThemeFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	terminal.NewShell(a.svc, creds, themes, os.Stdout, a.log).Run()
	return nil
}

func list(args []string) error {
	var l *login
	cfg, fs, err := parse("ls", args, func(fs *flag.FlagSet) { l = bindLogin(fs) })
	if err != nil {
		return err
	}
	creds, err := l.credentials(cfg)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.svc.ListDirectory(creds, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("Directory of %s\n\n", res.Path)
	return terminal.NewTableFormatter(os.Stdout).FormatListing(browse.SortForDisplay(res.Entries))
}

func get(args []string) error {
	var (
		l      *login
		dir    string
		output string
	)
	cfg, fs, err := parse("get", args, func(fs *flag.FlagSet) {
		l = bindLogin(fs)
		fs.StringVarP(&dir, "dir", "d", "", "remote directory holding the files")
		fs.StringVarP(&output, "output", "o", "", "archive path (defaults to --archive-name)")
	})
	if err != nil {
		return err
	}
	if output == "" {
		output = cfg.ArchiveName
	}
	if _, err := transfer.ValidateNames(fs.Args()); err != nil {
		return err
	}

	creds, err := l.credentials(cfg)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, transfer.WithProgress(printProgress))
	if err != nil {
		return err
	}
	defer a.close()

	start := time.Now()
	summary, err := a.svc.SaveArchive(creds, dir, fs.Args(), output)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	abs, _ := filepath.Abs(output)
	color.New(color.FgGreen).Printf("Saved %d file(s), %s in %s to %s\n",
		len(summary.Files), humanize.IBytes(uint64(summary.TotalBytes)),
		time.Since(start).Round(time.Millisecond), abs)
	return nil
}

func printProgress(name string, transferred int64, speed float64, elapsed time.Duration) {
	fmt.Fprintf(os.Stderr, "\r%-40s %10s %10s/s %4ds",
		name, humanize.IBytes(uint64(transferred)), humanize.IBytes(uint64(speed)), int(elapsed.Seconds()))
}

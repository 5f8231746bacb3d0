// Package config loads application settings from the environment and
// command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve without system tzdata

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"ftpbrowser/logging"
)

// EnvFile is read into the environment before flags are bound. Variables
// already set in the environment win over the file.
var EnvFile = ".env"

// Config holds the application configuration
type Config struct {
	// Web server
	ListenAddr  string
	MetricsAddr string
	CORSOrigins []string
	SessionTTL  time.Duration

	// Logging
	LogLevel  string
	LogFile   string
	LogFormat string

	// Login form defaults (JSON file)
	DefaultsFile string

	// Transfers
	Timeout          time.Duration
	ArchiveName      string
	MaxArchiveSize   uint64
	CompressionLevel int

	// Time zone of the timestamps in server listings
	ServerTimezone string
	Location       *time.Location

	// Performance CSV log directory, empty disables it
	PerfLogDir string

	// Terminal theme file
	ThemeFile string
}

// Load reads configuration from environment variables and then applies any
// flags found in args. Unknown flags are an error.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("ftpbrowser", flag.ContinueOnError)
	cfg, err := Bind(fs)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Finish(fs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// maxSizeFlag keeps the raw flag value until Finish parses it
const maxSizeFlag = "max-archive-size"

// Bind registers all configuration flags on fs, seeded from EnvFile and the
// environment. Call Finish after fs.Parse.
func Bind(fs *flag.FlagSet) (*Config, error) {
	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}
	timeout, err := envDuration("FTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := envDuration("SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	level, err := envInt("COMPRESSION_LEVEL", 6)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	fs.StringVar(&cfg.ListenAddr, "listen", envOr("LISTEN_ADDR", ":8080"), "address of the web server")
	fs.StringVar(&cfg.MetricsAddr, "metrics", envOr("METRICS_ADDR", ""), "address of the metrics server (empty disables it)")
	fs.StringSliceVar(&cfg.CORSOrigins, "cors-origin", envList("CORS_ORIGINS"), "origins allowed to call the API with credentials, * for any (empty keeps it same-origin)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", sessionTTL, "lifetime of a stored web login")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", envOr("LOG_FILE", logging.DefaultFile), "append logs to this file (empty disables it)")
	fs.StringVar(&cfg.LogFormat, "log-format", envOr("LOG_FORMAT", "console"), "stderr log format (console or json)")
	fs.StringVar(&cfg.DefaultsFile, "defaults", envOr("DEFAULTS_FILE", "config.json"), "JSON file with login defaults")
	fs.DurationVar(&cfg.Timeout, "timeout", timeout, "FTP connection timeout")
	fs.StringVar(&cfg.ArchiveName, "archive-name", envOr("ARCHIVE_NAME", "ftp_files.zip"), "file name suggested for downloads")
	fs.String(maxSizeFlag, envOr("MAX_ARCHIVE_SIZE", "0"), "largest total download, e.g. 512MB (0 = unlimited)")
	fs.IntVar(&cfg.CompressionLevel, "compression-level", level, "deflate level 0-9")
	fs.StringVar(&cfg.ServerTimezone, "server-tz", envOr("FTP_TIMEZONE", "UTC"), "time zone of server listing timestamps, e.g. Europe/Berlin")
	fs.StringVar(&cfg.PerfLogDir, "perf-log-dir", envOr("PERF_LOG_DIR", ""), "directory for the CSV performance log")
	fs.StringVar(&cfg.ThemeFile, "theme-file", envOr("THEME_FILE", defaultThemeFile()), "terminal theme file")
	return cfg, nil
}

// Finish parses derived values and validates the configuration
func (c *Config) Finish(fs *flag.FlagSet) error {
	raw, err := fs.GetString(maxSizeFlag)
	if err != nil {
		return err
	}
	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("invalid --%s %q: %w", maxSizeFlag, raw, err)
	}
	c.MaxArchiveSize = size

	loc, err := time.LoadLocation(c.ServerTimezone)
	if err != nil {
		return fmt.Errorf("invalid --server-tz %q: %w", c.ServerTimezone, err)
	}
	c.Location = loc
	return c.Validate()
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression level must be 0-9, got %d", c.CompressionLevel)
	}
	if strings.TrimSpace(c.ArchiveName) == "" {
		return fmt.Errorf("archive name must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %v", c.SessionTTL)
	}
	return nil
}

// loadEnvFile exports the variables of a dotenv file. A missing file is not
// an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultThemeFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ftpconfig.json"
	}
	return home + string(os.PathSeparator) + ".ftpconfig.json"
}

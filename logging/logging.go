// Package logging builds the zap logger shared by every component.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultFile is where logs are appended when no file is configured
const DefaultFile = "ftp_client.log"

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	File   string // JSON log file, empty for stderr only
}

// New builds a logger writing to stderr and, when File is set, to a JSON
// file as well. The returned cleanup flushes the logger and closes the file;
// call it once the logger is no longer used.
func New(cfg Config) (*zap.Logger, func(), error) {
	var level zapcore.Level
	if cfg.Level == "" {
		level = zapcore.InfoLevel
	} else if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	atom := zap.NewAtomicLevelAt(level)

	var stderrEncoder zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stderrEncoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		stderrEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stderrEncoder, zapcore.Lock(os.Stderr), atom),
	}

	closeFile := func() {}
	if cfg.File != "" {
		sink, closeSink, err := zap.Open(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		closeFile = closeSink
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, atom))
	}

	log := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	cleanup := func() {
		_ = log.Sync()
		closeFile()
	}
	return log, cleanup, nil
}

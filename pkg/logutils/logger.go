package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for file logging.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// Options controls where and how the application logs.
type Options struct {
	// Level is one of: debug, info, warn, error, fatal, panic, disabled.
	Level string
	// File receives JSON log lines. Empty means Fallback (or stderr).
	File string
	// Pretty switches the fallback writer to a human-readable console format.
	Pretty bool
	// Fallback is used when File is empty. Defaults to os.Stderr.
	Fallback io.Writer

	// Rotation limits for File. Zero values use the defaults above.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

// New returns a logger configured by opts and a closer for any opened file.
// Log files are appended to and rotated by size, so repeated CLI invocations
// share one log.
func New(opts Options) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	var writer io.Writer = opts.Fallback
	if writer == nil {
		writer = os.Stderr
	}
	if opts.Pretty {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}

		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: orDefault(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     orDefault(opts.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   true,
		}
		closer = func() { _ = rotator.Close() }
		writer = rotator
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}

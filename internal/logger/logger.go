// Package logger builds the zerolog logger shared by a process.
package logger

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Config controls level and sinks
type Config struct {
	Level string
	// File, when set, receives a copy of every line through a rotating writer
	File string
}

// New returns a JSON logger writing to stdout and, optionally, a rotated file.
// An unknown level falls back to info.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit primary writer
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.File != "" {
		out = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		})
	}

	l := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if err != nil {
		l.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
	}
	return l
}

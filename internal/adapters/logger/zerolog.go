package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"stockMatrix/internal/ports"
)

// Output formats accepted by New.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options selects and configures a logger implementation.
type Options struct {
	Level  string
	Format string // text, json or console
	File   string // optional rotating log file; stderr when empty
}

// ZerologLogger implements ports.Logger on top of zerolog.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a structured logger writing to w.
// Console format renders human-readable lines, anything else JSON.
func NewZerologLogger(w io.Writer, level LogLevel, format string) *ZerologLogger {
	if w == nil {
		w = os.Stderr
	}
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	zl := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// New builds the logger described by opts. When File is set the output is a
// size-rotated file; the returned closer must be called on shutdown.
func New(opts Options) (ports.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    25, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		w, closer = rotating, rotating
	}

	level := ParseLevel(opts.Level)
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return NewStdLoggerTo(w, level), closer, nil
	case FormatJSON, FormatConsole:
		return NewZerologLogger(w, level, strings.ToLower(opts.Format)), closer, nil
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q: %w", opts.Format, ports.ErrConfigurationError)
	}
}

func zerologLevel(l LogLevel) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) write(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, f := range fields {
		if f != nil {
			event = event.Fields(f)
		}
	}
	event.Msg(msg)
}

// Debug logs a message at Debug level.
func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(l.zl.Debug(), msg, fields)
}

// Info logs a message at Info level.
func (l *ZerologLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(l.zl.Info(), msg, fields)
}

// Warn logs a message at Warning level.
func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(l.zl.Warn(), msg, fields)
}

// Error logs an error message at Error level.
func (l *ZerologLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.write(l.zl.Error().Err(err), msg, fields)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

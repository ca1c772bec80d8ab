package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog that carries component fields
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the process-wide logger, set by Init
	Default *Logger
)

// Init configures the process logger. An empty level falls back to the
// environment: debug for development, info for production. pretty selects
// the console writer over JSON lines.
func Init(level, environment string, pretty bool) {
	lvl := parseLevel(level, environment)

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	Default = New(out)
	Default.Info().Str("level", lvl.String()).Msg("Logger initialized")
}

// New builds a timestamped logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

func parseLevel(level, environment string) zerolog.Level {
	if level == "" {
		if strings.EqualFold(environment, "production") {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.logger.Fatal() }

// For returns a child of the default logger tagged with a component name
func For(component string) *Logger {
	if Default == nil {
		Init(os.Getenv("LOG_LEVEL"), os.Getenv("HARVEST_ENVIRONMENT"), true)
	}
	return Default.WithField("component", component)
}

// OrNop returns l, or a discarding logger when l is nil
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

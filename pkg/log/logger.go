package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

var (
	mu   sync.RWMutex
	base = newBase(os.Stderr, LevelInfo)
)

func newBase(w io.Writer, level Level) zerolog.Logger {
	return zerolog.New(w).
		Level(toZerolog(level)).
		With().
		Timestamp().
		Logger()
}

// SetupLogger configures the process-wide logger at the given level
// ("debug", "info", "warn", "error") and routes library warnings
// (ConvergenceWarning, UndefinedMetricWarning, ...) through it.
func SetupLogger(loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	mu.Lock()
	base = base.Level(toZerolog(level))
	mu.Unlock()

	errors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), warningFields(w)...)
	})
	return nil
}

// SetOutput redirects the process-wide logger. Pretty selects zerolog's
// human readable console writer instead of JSON lines.
func SetOutput(w io.Writer, pretty bool) {
	mu.Lock()
	defer mu.Unlock()
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	base = base.Output(w)
}

// ToLogLevel parses a textual level.
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log.level", "must be one of debug, info, warn, error", level)
	}
}

// GetLogger returns the default logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &zerologLogger{zl: base}
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &zerologLogger{zl: base.With().Str(ComponentKey, name).Logger()}
}

// NewLogger wraps an existing zerolog logger.
func NewLogger(zl zerolog.Logger) Logger {
	return &zerologLogger{zl: zl}
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) { emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { emit(l.zl.Warn(), msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...any) { emit(l.zl.Error(), msg, fields) }

func (l *zerologLogger) With(fields ...any) Logger {
	_, rest := splitError(fields)
	return &zerologLogger{zl: l.zl.With().Fields(normalize(rest)).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerolog(level) >= l.zl.GetLevel()
}

// emit writes one event. A leading error field is logged under "error"
// together with its cockroachdb stack trace.
func emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	err, rest := splitError(fields)
	if err != nil {
		e = e.AnErr(ErrAttrKey, err)
		if st := extractStacktrace(err); st != "" {
			e = e.Str(StacktraceKey, st)
		}
	}
	e.Fields(normalize(rest)).Msg(msg)
}

func splitError(fields []any) (error, []any) {
	if len(fields) == 0 {
		return nil, fields
	}
	if err, ok := fields[0].(error); ok && len(fields)%2 == 1 {
		return err, fields[1:]
	}
	return nil, fields
}

// normalize turns key/value pairs into a map, stringifying keys and errors.
// An unpaired trailing value is kept under "!BADKEY" like log/slog does.
func normalize(fields []any) map[string]any {
	out := make(map[string]any, len(fields)/2+1)
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			out["!BADKEY"] = fields[i]
			break
		}
		key := fmt.Sprint(fields[i])
		if m, ok := fields[i+1].(zerolog.LogObjectMarshaler); ok {
			out[key] = m
			continue
		}
		if err, ok := fields[i+1].(error); ok {
			out[key] = err.Error()
			continue
		}
		out[key] = fields[i+1]
	}
	return out
}

func toZerolog(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

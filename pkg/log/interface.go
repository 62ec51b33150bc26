// Package log はチューニングと評価の実行ログを構造化して出力します。
//
// Logger は log/slog と同じ形のメソッドを持つ小さなインターフェースで、
// 実装は zerolog です。フィールドはキーと値を交互に並べ、キーには
// attributes.go の定数を使います。
//
//	logger := log.GetLoggerWithName("model_selection").With(log.ModelNameKey, "gbm")
//	logger.Info("tuning started", log.CandidatesKey, 9, log.CyclesKey, 30)
//	logger.Warn("configuration failed", err, log.ConfigKey, cfg.String())
package log

import (
	"context"
)

// Logger is a leveled structured logger. fields alternate keys and values;
// Warn and Error accept an error as the first field and log it under
// "error" with its stack trace.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level are written. Use it to skip
	// building expensive fields, e.g. per-configuration summaries at Debug.
	Enabled(ctx context.Context, level Level) bool
}

// Level uses the slog.Level values.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Package logger provides structured logging setup for the
// application.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap logger behind a small facade so callers can
// construct it before configuration is known.
type Logger struct {
	// Log is the underlying zap logger. It is a no-op until Init
	// succeeds.
	Log *zap.Logger
}

// New returns a Logger with a no-op backend.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds the production zap logger at the given level
// ("debug", "info", "warn", "error").
func (l *Logger) Init(level string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	log, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = log
	return nil
}

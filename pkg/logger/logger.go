// Package logger provides the structured key/value logger used across
// DigestSim. It is a thin facade over zap's SugaredLogger so that packages
// depend on a small interface instead of zap directly.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a leveled, structured logger. Key/value pairs follow the
// message, e.g. log.Info("digested protein", "name", name, "fragments", n).
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// With returns a child logger that always includes the given pairs.
	With(keysAndValues ...any) Logger

	// Sync flushes any buffered entries.
	Sync() error
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New wraps an existing zap logger.
func New(z *zap.Logger) Logger {
	return &zapLogger{s: z.Sugar()}
}

func (l *zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

func (l *zapLogger) With(kv ...any) Logger {
	return &zapLogger{s: l.s.With(kv...)}
}

func (l *zapLogger) Sync() error {
	return l.s.Sync()
}

// Production builds a JSON logger at the given level ("debug", "info",
// "warn", "error"). An empty level means info.
func Production(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

// Development builds a human-readable console logger writing to stderr.
func Development(level string) (Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return New(zap.NewNop())
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = Nop()
)

// Default returns the process-wide logger. It discards output until
// SetDefault is called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	if l == nil {
		l = Nop()
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// SyncDefault flushes the process-wide logger. Errors from syncing
// stdout/stderr are ignored.
func SyncDefault() {
	_ = Default().Sync()
}

// Info logs through the default logger.
func Info(msg string, kv ...any) { Default().Info(msg, kv...) }

// Warn logs through the default logger.
func Warn(msg string, kv ...any) { Default().Warn(msg, kv...) }

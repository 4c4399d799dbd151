package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

func init() {
	// A usable logger must exist before Init runs; tests and early bootstrap
	// code log through the package-level helpers.
	global.Store(zap.NewNop())
}

// Init builds the process-wide logger at the requested level. Unknown level
// strings fall back to info rather than failing startup.
func Init(level string) error {
	zapLevel := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		zapLevel = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return err
	}

	global.Store(built)
	return nil
}

// Logger returns the current process-wide logger.
func Logger() *zap.Logger {
	return global.Load()
}

// Sync flushes any buffered entries. Safe to defer from main.
func Sync() error {
	return Logger().Sync()
}

// WithModule scopes a child logger to a named component.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

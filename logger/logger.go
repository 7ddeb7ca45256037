package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global structured logger.
func Init() {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if os.Getenv("APP_ENV") != "production" {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		base, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			// zap config is static; a build failure is a programming error
			panic(err)
		}
		sugar = base.Sugar()
	})
}

// L returns the global logger instance.
func L() *zap.SugaredLogger {
	if sugar == nil {
		Init()
	}
	return sugar
}

// Info is a shorthand for L().Infow
func Info(msg string, args ...any) {
	L().Infow(msg, args...)
}

// Error is a shorthand for L().Errorw
func Error(msg string, args ...any) {
	L().Errorw(msg, args...)
}

// Debug is a shorthand for L().Debugw
func Debug(msg string, args ...any) {
	L().Debugw(msg, args...)
}

// Warn is a shorthand for L().Warnw
func Warn(msg string, args ...any) {
	L().Warnw(msg, args...)
}

// Fatal logs and exits with status 1.
func Fatal(msg string, args ...any) {
	L().Fatalw(msg, args...)
}

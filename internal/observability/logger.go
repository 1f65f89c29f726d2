// File: internal/observability/logger.go
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xkilldash9x/boxflow/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
	// atomicLevel is shared by every core of the global logger.
	atomicLevel *zap.AtomicLevel
)

// Initialize builds the process logger from cfg, writing console output to
// consoleWriter and, when LogFile is set, JSON to a rotated file. Only the
// first call has any effect.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}
		atomicLevel = &level

		cores := []zapcore.Core{zapcore.NewCore(getEncoder(cfg), consoleWriter, level)}
		if cfg.LogFile != "" {
			rotated := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
			cores = append(cores, zapcore.NewCore(getEncoder(config.LoggerConfig{Format: "json"}), rotated, level))
		}

		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}
		logger := zap.New(zapcore.NewTee(cores...), options...).Named(cfg.ServiceName)
		globalLogger.Store(logger)

		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger is Initialize with console output on a locked stdout.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stdout))
}

// ResetForTest drops the global logger so the next Initialize takes effect.
// Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	atomicLevel = nil
	once = sync.Once{}
}

// getEncoder builds the encoder for one core. "console" gives a single
// line per entry for terminals; anything else is JSON.
func getEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	if cfg.Format != "console" {
		return zapcore.NewJSONEncoder(ec)
	}
	if cfg.Color {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	// "boxflow.document." keeps the component apart from the message.
	ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	return zapcore.NewConsoleEncoder(ec)
}

// GetLogger returns the global logger, or a development logger named
// "fallback" when Initialize has not run yet.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	l.Warn("Logger used before initialization")
	return l.Named("fallback")
}

// Component returns the global logger named for a subsystem, e.g. "document"
// or "watch". Library packages receive it by injection and never call
// GetLogger themselves.
func Component(name string) *zap.Logger {
	return GetLogger().Named(name)
}

// SetLevel adjusts the level of an initialized logger, e.g. when --debug is
// given after the config file was read. It reports whether a level was set.
func SetLevel(level string) bool {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || atomicLevel == nil {
		return false
	}
	atomicLevel.SetLevel(lvl)
	return true
}

// ignorableSyncErrors are returned when syncing a terminal or pipe.
var ignorableSyncErrors = []string{"sync /dev/stdout", "invalid argument", "operation not supported"}

// Sync flushes buffered entries. Call it before exiting.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	err := logger.Sync()
	if err == nil {
		return
	}
	for _, msg := range ignorableSyncErrors {
		if strings.Contains(err.Error(), msg) {
			return
		}
	}
	fmt.Fprintln(os.Stderr, "boxflow: flushing logs:", err)
}

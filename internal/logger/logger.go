// Package logger wraps a process-wide zap logger with optional rotating
// file output.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// L is the global sugared logger.
	L *zap.SugaredLogger
	// Z is the underlying structured logger.
	Z *zap.Logger

	closer io.Closer
)

// Until Init runs, entries go to stderr at info level in the same console
// format Init uses.
func init() {
	Z = newLogger(os.Stderr, zapcore.InfoLevel)
	L = Z.Sugar()
}

type Config struct {
	Level      string // debug, info, warn, error
	File       string // empty means stderr only
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
}

func Init(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	var output io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSize, 64),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAge, 7),
			Compress:   true,
		}
		closer = fileWriter
		output = io.MultiWriter(os.Stderr, fileWriter)
	}

	Z = newLogger(output, level)
	L = Z.Sugar()
	return nil
}

func newLogger(w io.Writer, level zapcore.LevelEnabler) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core, zap.AddCallerSkip(1))
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level: %s", level)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Sync flushes buffered entries and closes the rotating file, if any.
func Sync() {
	if Z != nil {
		_ = Z.Sync()
	}
	if closer != nil {
		_ = closer.Close()
	}
}

// With returns a child logger carrying the given key/value pairs.
func With(args ...interface{}) *zap.SugaredLogger { return L.With(args...) }

func Debugf(template string, args ...interface{}) { L.Debugf(template, args...) }

func Infof(template string, args ...interface{}) { L.Infof(template, args...) }

func Warnf(template string, args ...interface{}) { L.Warnf(template, args...) }

func Errorf(template string, args ...interface{}) { L.Errorf(template, args...) }

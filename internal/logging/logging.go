package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rambosorn/khadimy/internal/config"
)

// New builds the process logger from the log section of the config.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// NewStepLog returns a logger that writes to base and also appends one
// "[timestamp] message" line per entry to the file at path. If the file cannot
// be opened the base logger is returned unchanged.
func NewStepLog(base *zap.Logger, path string) (*zap.Logger, io.Closer) {
	if path == "" {
		return base, nopCloser{}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		base.Warn("step log file unavailable", zap.String("path", path), zap.Error(err))
		return base, nopCloser{}
	}

	fileCore := zapcore.NewCore(stepEncoder(), zapcore.AddSync(f), zapcore.DebugLevel)
	logger := base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
	return logger, f
}

// NewStepWriter is NewStepLog for an arbitrary writer; used by tests.
func NewStepWriter(base *zap.Logger, w io.Writer) *zap.Logger {
	fileCore := zapcore.NewCore(stepEncoder(), zapcore.AddSync(w), zapcore.DebugLevel)
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
}

func stepEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:    "ts",
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.UTC().Format(time.RFC3339) + "]")
		},
		ConsoleSeparator: " ",
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

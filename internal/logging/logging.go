// Package logging builds the process logger. INFO and WARN go to stdout,
// ERROR and above to stderr, and an optional file receives everything.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for env ("production" or "development") and a
// function that flushes it and closes the log file.
func New(env, logPath string) (*zap.Logger, func(), error) {
	encoder := newEncoder(env)

	stdoutLevels := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel(env) && l < zapcore.ErrorLevel
	})
	stderrLevels := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), stdoutLevels),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), stderrLevels),
	}

	var file *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(f), minLevel(env)))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	cleanup := func() {
		_ = logger.Sync()
		if file != nil {
			file.Close()
		}
	}
	return logger, cleanup, nil
}

func minLevel(env string) zapcore.Level {
	if env == "development" {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func newEncoder(env string) zapcore.Encoder {
	if env == "development" {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

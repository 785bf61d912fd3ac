package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/internal/config"
)

// newZapLogger builds a zap logger writing to stderr, so stdout stays free for reports.
func newZapLogger(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Format == config.FormatConsole {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if verbose {
		level = zapcore.DebugLevel
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.DisableStacktrace = true
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	return zapConfig.Build()
}

// zapLogger adapts a sugared zap logger to circulation.Logger. The key/value args
// use the same loose pairing as slog.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newZapAdapter(logger *zap.Logger) zapLogger {
	return zapLogger{sugar: logger.Sugar()}
}

func (l zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }

func (l zapLogger) Info(msg string, args ...any) { l.sugar.Infow(msg, args...) }

func (l zapLogger) Warn(msg string, args ...any) { l.sugar.Warnw(msg, args...) }

func (l zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

var _ circulation.Logger = zapLogger{}

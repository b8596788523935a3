// Package dlog builds the zap logger used across the plugin.
package dlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelDebug logs every image and code
	LogLevelDebug = "debug"

	// LogLevelInfo logs per-file progress
	LogLevelInfo = "info"

	// LogLevelWarn logs recoverable extraction problems
	LogLevelWarn = "warn"

	// LogLevelNone disables logging
	LogLevelNone = "none"
)

// GetLogger returns a console zap logger writing to stderr at the given level
func GetLogger(logLevel string) (*zap.Logger, error) {
	if logLevel == LogLevelNone {
		return zap.NewNop(), nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, err
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Encoding = "console"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapConfig.Sampling = nil
	zapConfig.DisableStacktrace = lvl > zapcore.DebugLevel
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	return zapConfig.Build()
}


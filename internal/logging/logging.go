// Package logging builds the zap loggers shared by the CLI and the API.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr. Verbose loggers are human-readable
// at debug level; otherwise JSON at warn level keeps command output clean.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		return build(zap.NewDevelopmentConfig(), zapcore.DebugLevel)
	}
	return build(zap.NewProductionConfig(), zapcore.WarnLevel)
}

// NewServer is New for the long-running API server, which logs every
// request at info level unless verbose.
func NewServer(verbose bool) (*zap.Logger, error) {
	if verbose {
		return New(true)
	}
	return build(zap.NewProductionConfig(), zapcore.InfoLevel)
}

func build(cfg zap.Config, level zapcore.Level) (*zap.Logger, error) {
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

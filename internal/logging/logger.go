// Package logging builds the zap loggers the pipeline runs on. Production
// output is JSON with ISO8601 timestamps for log shippers; development
// output is colorized console text for watching a run locally.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvDevMode reports whether the GUIDE_DEV environment variable requests
// development logging. It exists so the mode can be decided before the
// configuration layer is up.
func EnvDevMode() bool {
	return os.Getenv("GUIDE_DEV") != ""
}

// New builds a logger for the given mode.
func New(development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

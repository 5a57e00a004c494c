// Package logging is the single place schedcore constructs its zap logger.
// Call sites never call zap.NewProduction/zap.NewDevelopment directly; they
// take a *zap.SugaredLogger from New and pass it down, the way karpenter's
// main.go obtains a process-wide logger once and hands out zap.S().
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger for the given level name (debug, info,
// warn, error). debug uses zap's development config (console encoding,
// caller info, stack traces on warn+); everything else uses the production
// JSON config, matching the level requested.
func New(level string) (*zap.SugaredLogger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}

	var cfg zap.Config
	if zapLevel == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: building zap logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Noop returns a logger that discards everything, for tests and for paths
// that run without a configured logger (Service accepts a nil logger too,
// but the HTTP server always wants one).
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a zap logger for the given format ("console" or "json") and level.
func New(format, level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = lvl

	return cfg.Build()
}

// Setup builds a logger and installs it as the zap global logger. The returned
// function flushes and restores the previous globals.
func Setup(format, level string) (func(), error) {
	l, err := New(format, level)
	if err != nil {
		return nil, err
	}
	undo := zap.ReplaceGlobals(l)
	return func() {
		_ = l.Sync()
		undo()
	}, nil
}

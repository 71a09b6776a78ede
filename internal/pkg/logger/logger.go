package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process logger. Production mode emits JSON, anything
// else keeps the human-readable development encoder. A non-empty
// logPath tees output into that file alongside stderr.
func New(env, logPath string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "prod" || env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if logPath != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logPath)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, logPath)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}
	return l, nil
}

package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process-wide SugaredLogger. Production mode emits JSON,
// anything else uses the human-readable development encoder.
func New(appEnv string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(appEnv) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mailrep/internal/config"
)

// InitLogger builds the process logger from logging.level and logging.format.
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	return build(cfg.GetString("logging.level"), cfg.GetString("logging.format") == "json")
}

func build(levelName string, jsonFormat bool) (*zap.Logger, error) {
	var level zapcore.Level
	switch levelName {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var logConfig zap.Config
	if jsonFormat {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/romangod6/spaceflight-reader/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger writing to stdout and, when cfg.File is set,
// to logs/<service>/<file> as well.
func NewLogger(cfg config.LoggingConfig, service string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if strings.ToLower(cfg.Format) == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}

	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}

	if cfg.File != "" {
		path, err := logFilePath(service, cfg.File)
		if err != nil {
			return nil, err
		}
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, path)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.With(zap.String("service", service)), nil
}

func logFilePath(service, file string) (string, error) {
	sanitized := strings.ReplaceAll(strings.ToLower(service), " ", "_")

	dir := filepath.Join("logs", sanitized)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	return filepath.Join(dir, filepath.Base(file)), nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

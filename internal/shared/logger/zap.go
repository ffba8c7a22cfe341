package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapConfig selects the zap level and encoding.
type ZapConfig struct {
	Level       string
	Format      string
	Development bool
}

// NewZapLogger builds the structured logger injected into services.
func NewZapLogger(cfg *ZapConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &ZapConfig{Level: "info", Format: "json"}
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		zc.Encoding = "console"
	default:
		zc.Encoding = "json"
	}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return l, nil
}

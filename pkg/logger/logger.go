// Package logger builds the process logger: zap underneath, ectologger on top.
package logger

import (
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap returns a JSON production logger, or a console logger when pretty is set.
// Unknown levels fall back to info.
func NewZap(level string, pretty bool, serviceName string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	var config zap.Config
	if pretty {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := config.Build()
	if err != nil {
		return nil, err
	}

	if serviceName != "" {
		base = base.With(zap.String("service_name", serviceName))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		base = base.With(zap.String("hostname", hostname))
	}

	return base, nil
}

// New wraps NewZap in the ectologger interface used across the service.
func New(level string, pretty bool, serviceName string) (ectologger.Logger, *zap.Logger, error) {
	base, err := NewZap(level, pretty, serviceName)
	if err != nil {
		return nil, nil, err
	}
	return zapadapter.NewZapEctoLogger(base, nil), base, nil
}

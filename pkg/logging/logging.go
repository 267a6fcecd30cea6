// Package logging builds the zap logger used by the viewer and its session.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level, encoding and sinks of a logger.
type Config struct {
	Level    string   `yaml:"level"`
	Encoding string   `yaml:"encoding"` // json or console
	Outputs  []string `yaml:"outputs"`  // paths, or stdout/stderr
}

// DefaultConfig logs nothing: the viewer owns the terminal, so any sink has
// to be asked for explicitly.
func DefaultConfig() Config {
	return Config{Level: "info", Encoding: "json"}
}

// Validate reports an unusable level or encoding.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log encoding %q: want json or console", c.Encoding)
	}
	return nil
}

// New builds a logger from cfg. With no outputs it returns a no-op logger.
func New(cfg Config) (*zap.Logger, error) {
	if len(cfg.Outputs) == 0 {
		return zap.NewNop(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := zapcore.ParseLevel(cfg.Level)

	zc := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         cfg.Encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      cfg.Outputs,
		ErrorOutputPaths: cfg.Outputs,
		DisableCaller:    true,
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

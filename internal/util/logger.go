package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LoggerOption adjusts the zap config before the logger is built
type LoggerOption func(*zap.Config) error

// WithLevel overrides the environment's default level ("debug", "info", ...).
// An empty level keeps the default.
func WithLevel(level string) LoggerOption {
	return func(c *zap.Config) error {
		if level == "" {
			return nil
		}
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return err
		}
		c.Level = lvl
		return nil
	}
}

// WithService stamps every entry with the service name and version
func WithService(name, version string) LoggerOption {
	return func(c *zap.Config) error {
		if c.InitialFields == nil {
			c.InitialFields = make(map[string]interface{})
		}
		c.InitialFields["service"] = name
		c.InitialFields["version"] = version
		return nil
	}
}

// InitLogger initializes the global logger.
// "production" logs JSON at info, "test" discards, anything else is a colored console.
func InitLogger(env string, opts ...LoggerOption) error {
	if env == "test" {
		logger = zap.NewNop()
		zap.ReplaceGlobals(logger)
		return nil
	}

	config, err := loggerConfig(env, opts...)
	if err != nil {
		return err
	}

	logger, err = config.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

func loggerConfig(env string, opts ...LoggerOption) (zap.Config, error) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return config, err
		}
	}
	return config, nil
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}

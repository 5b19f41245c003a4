// Package logger builds the zap loggers used by both bots.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger when prod is set and a console logger otherwise
func New(prod bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if prod {
		logger, err = zap.NewProduction()
	} else {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = cfg.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// WithTelegram mirrors error-level entries to a Telegram chat.
// A zero chatID returns logger unchanged.
func WithTelegram(logger *zap.Logger, sender Sender, chatID int64) *zap.Logger {
	if chatID == 0 || sender == nil {
		return logger
	}
	tg := NewTelegramCore(sender, chatID, zapcore.ErrorLevel)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, tg)
	}))
}

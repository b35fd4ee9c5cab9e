package logging

import (
	"go.uber.org/zap"

	"pagestore"
)

// Zap wraps a zap.Logger to implement pagestore.Logger.
type Zap struct {
	logger *zap.Logger
}

// NewZap creates a pagestore.Logger from a zap.Logger.
func NewZap(logger *zap.Logger) pagestore.Logger {
	return &Zap{logger: logger}
}

func (z *Zap) Error(msg string, args ...any) {
	z.logger.Sugar().Errorw(msg, args...)
}

func (z *Zap) Warn(msg string, args ...any) {
	z.logger.Sugar().Warnw(msg, args...)
}

func (z *Zap) Info(msg string, args ...any) {
	z.logger.Sugar().Infow(msg, args...)
}

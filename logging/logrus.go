package logging

import (
	"github.com/sirupsen/logrus"

	"pagestore"
)

// Logrus wraps a logrus.Logger to implement pagestore.Logger.
type Logrus struct {
	logger *logrus.Logger
}

// NewLogrus creates a pagestore.Logger from a logrus.Logger.
func NewLogrus(logger *logrus.Logger) pagestore.Logger {
	return &Logrus{logger: logger}
}

func (l *Logrus) Error(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Error(msg)
}

func (l *Logrus) Warn(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Warn(msg)
}

func (l *Logrus) Info(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Info(msg)
}

package logging

import (
	"github.com/sirupsen/logrus"
)

// DefaultLog provides a default implementation of the Logger interface.
type DefaultLog struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// Logger instances provide custom logging.
type Logger interface {

	// Log with level ERROR
	Error(...any)

	// Log formatted messages with level ERROR
	Errorf(string, ...any)

	// Log with level WARN
	Warn(...any)

	// Log formatted messages with level WARN
	Warnf(string, ...any)

	// Log with level INFO
	Info(...any)

	// Log formatted messages with level INFO
	Infof(string, ...any)

	// Log with level DEBUG
	Debug(...any)

	// Log formatted messages with level DEBUG
	Debugf(string, ...any)

	WithFields(map[string]any) Logger
}

func (dl *DefaultLog) entry() *logrus.Entry { return dl.logger.WithFields(dl.fields) }

func (dl *DefaultLog) Error(a ...any)            { dl.entry().Error(a...) }
func (dl *DefaultLog) Errorf(f string, a ...any) { dl.entry().Errorf(f, a...) }
func (dl *DefaultLog) Warn(a ...any)             { dl.entry().Warn(a...) }
func (dl *DefaultLog) Warnf(f string, a ...any)  { dl.entry().Warnf(f, a...) }
func (dl *DefaultLog) Info(a ...any)             { dl.entry().Info(a...) }
func (dl *DefaultLog) Infof(f string, a ...any)  { dl.entry().Infof(f, a...) }
func (dl *DefaultLog) Debug(a ...any)            { dl.entry().Debug(a...) }
func (dl *DefaultLog) Debugf(f string, a ...any) { dl.entry().Debugf(f, a...) }

// WithFields returns a logger adding fields to every entry. The receiver
// is not changed.
func (dl *DefaultLog) WithFields(fields map[string]any) Logger {
	merged := make(logrus.Fields, len(dl.fields)+len(fields))
	for k, v := range dl.fields {
		merged[k] = v
	}

	for k, v := range fields {
		merged[k] = v
	}

	return &DefaultLog{logger: dl.logger, fields: merged}
}

// New returns a logger writing to its own logrus logger.
func New() *DefaultLog {
	return &DefaultLog{logger: logrus.New()}
}

// Standard returns a logger writing to the logrus standard logger, which
// is configured by Init.
func Standard() *DefaultLog {
	return &DefaultLog{logger: logrus.StandardLogger()}
}

// Wrap returns a logger writing to l.
func Wrap(l *logrus.Logger) *DefaultLog {
	return &DefaultLog{logger: l}
}

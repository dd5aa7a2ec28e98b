package utils

import (
	"github.com/iotaledger/hive.go/logger"
)

// WrappedLogger forwards to the given logger if one was passed and drops everything otherwise.
type WrappedLogger struct {
	logger *logger.Logger
}

// NewWrappedLogger creates a new WrappedLogger.
func NewWrappedLogger(logger *logger.Logger) *WrappedLogger {
	return &WrappedLogger{logger: logger}
}

// Logger returns the underlying logger, which may be nil.
func (l *WrappedLogger) Logger() *logger.Logger {
	return l.logger
}

// LoggerNamed adds a sub-scope to the logger's name. See Logger.Named for details.
func (l *WrappedLogger) LoggerNamed(name string) *logger.Logger {
	if l.logger == nil {
		return nil
	}
	return l.logger.Named(name)
}

func (l *WrappedLogger) LogDebugf(template string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Debugf(template, args...)
	}
}

func (l *WrappedLogger) LogInfo(args ...interface{}) {
	if l.logger != nil {
		l.logger.Info(args...)
	}
}

func (l *WrappedLogger) LogInfof(template string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Infof(template, args...)
	}
}

func (l *WrappedLogger) LogWarn(args ...interface{}) {
	if l.logger != nil {
		l.logger.Warn(args...)
	}
}

func (l *WrappedLogger) LogWarnf(template string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Warnf(template, args...)
	}
}

func (l *WrappedLogger) LogErrorf(template string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Errorf(template, args...)
	}
}

// LogPanic logs the message and panics, even if no logger was passed.
func (l *WrappedLogger) LogPanic(args ...interface{}) {
	if l.logger == nil {
		panic(args)
	}
	l.logger.Panic(args...)
}

// LogPanicf logs the templated message and panics, even if no logger was passed.
func (l *WrappedLogger) LogPanicf(template string, args ...interface{}) {
	if l.logger == nil {
		panic(template)
	}
	l.logger.Panicf(template, args...)
}

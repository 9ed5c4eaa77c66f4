package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type StdLogger struct {
	internalLogger *slog.Logger
}

func New() Logger {
	l := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return &StdLogger{internalLogger: l}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &StdLogger{internalLogger: l}
}

func (l *StdLogger) Info(msg string, args ...interface{}) {
	l.internalLogger.Info(msg, args...)
}

func (l *StdLogger) Debug(msg string, args ...interface{}) {
	l.internalLogger.Debug(msg, args...)
}

func (l *StdLogger) Warn(msg string, args ...interface{}) {
	l.internalLogger.Warn(msg, args...)
}

func (l *StdLogger) Error(msg string, args ...interface{}) {
	l.internalLogger.Error(msg, args...)
}

// LogrusLogger adapts a logrus logger to Logger. Key-value pairs become logrus fields.
type LogrusLogger struct {
	internalLogger *logrus.Logger
}

func NewLogrus(l *logrus.Logger) Logger {
	return &LogrusLogger{internalLogger: l}
}

func (l *LogrusLogger) Info(msg string, args ...interface{}) {
	l.entry(args).Info(msg)
}

func (l *LogrusLogger) Debug(msg string, args ...interface{}) {
	l.entry(args).Debug(msg)
}

func (l *LogrusLogger) Warn(msg string, args ...interface{}) {
	l.entry(args).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, args ...interface{}) {
	l.entry(args).Error(msg)
}

func (l *LogrusLogger) entry(args []interface{}) *logrus.Entry {
	return l.internalLogger.WithFields(fields(args))
}

// fields pairs up slog-style key-value arguments. A dangling value is stored under "!BADKEY",
// matching what slog does with the same input.
func fields(args []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(args); i++ {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			continue
		}
		f[key] = args[i+1]
		i++
	}
	return f
}

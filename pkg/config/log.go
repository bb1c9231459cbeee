package config

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NewLogger creates a text logger writing to out at the given level.
func NewLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "logging level")
	}
	return &logrus.Logger{
		Out: out,
		Formatter: &ComponentTextFormatter{
			TextFormatter: logrus.TextFormatter{
				DisableTimestamp: true,
			},
		},
		Hooks: make(logrus.LevelHooks),
		Level: lvl,
	}, nil
}

// NamedLogger scopes a logger to one pipeline component.
func NamedLogger(log logrus.FieldLogger, name string) logrus.FieldLogger {
	return log.WithField("component", name)
}

// DiscardLogger returns a logger that drops everything. Tests use it.
func DiscardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// ComponentTextFormatter prefixes each message with its component name.
type ComponentTextFormatter struct {
	logrus.TextFormatter
}

// Format renders a single log entry.
func (f *ComponentTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if c, ok := entry.Data["component"]; ok {
		e := entry.WithFields(nil)
		e.Level = entry.Level
		e.Time = entry.Time
		e.Message = fmt.Sprintf("[%-9s] %s", c, entry.Message)
		delete(e.Data, "component")
		return f.TextFormatter.Format(e)
	}
	return f.TextFormatter.Format(entry)
}

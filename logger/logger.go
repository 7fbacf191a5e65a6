// Package logger provides structured logging for the signup harness.
// Every Logger carries a set of context fields; With* calls return a child
// and never mutate the parent.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Logger is a logrus entry bound to context fields
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

// Config holds logger configuration
type Config struct {
	Level      string
	Format     string
	OutputFile string

	// Output replaces stdout when set
	Output io.Writer
}

// New creates a logger writing to stdout (or cfg.Output) and, when
// OutputFile is set, appending to that file as well
func New(cfg Config) (*Logger, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	base.SetFormatter(formatter(cfg.Format, out))

	l := &Logger{}
	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0755); err != nil {
			return nil, err
		}
		l.file, err = os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(out, l.file)
	}
	base.SetOutput(out)

	l.entry = logrus.NewEntry(base)
	return l, nil
}

func formatter(format string, out io.Writer) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		}
	}

	colors := false
	if f, ok := out.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd())
	}
	return &logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceColors:     colors,
		DisableColors:   !colors,
	}
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) with(fields logrus.Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields), file: l.file}
}

// WithField returns a child logger with key set
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(logrus.Fields{key: value})
}

// WithFields returns a child logger with every field in fields set
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.with(fields)
}

// WithModule tags entries with the emitting package
func (l *Logger) WithModule(module string) *Logger {
	return l.WithField("module", module)
}

// WithAction tags entries with the step being performed
func (l *Logger) WithAction(action string) *Logger {
	return l.WithField("action", action)
}

// WithError attaches err's message
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

// Leveled output carrying the bound fields
func (l *Logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(msg string) { l.entry.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }
func (l *Logger) Warn(msg string) { l.entry.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }
func (l *Logger) Error(msg string) { l.entry.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// Printf logs at info. It lets the logger stand in for cron's PrintfLogger.
func (l *Logger) Printf(format string, args ...interface{}) { l.entry.Infof(format, args...) }

// StealthAction logs one simulated human gesture
func (l *Logger) StealthAction(action string, details map[string]interface{}) {
	fields := logrus.Fields{"stealth_action": action}
	for k, v := range details {
		fields[k] = v
	}
	l.with(fields).Debug("Stealth action performed")
}

// BrowserAction logs a page-level browser event
func (l *Logger) BrowserAction(action string, url string) {
	l.with(logrus.Fields{
		"browser_action": action,
		"url":            url,
	}).Info("Browser action")
}

// FieldAction logs an interaction with a logical form field
func (l *Logger) FieldAction(field string, action string) {
	l.with(logrus.Fields{
		"field":        field,
		"field_action": action,
	}).Debug("Field action")
}

// ScenarioOutcome logs the outcome of one scenario. Success is logged at info,
// indeterminate at warn and failure at error.
func (l *Logger) ScenarioOutcome(scenario string, status string, message string, warnings []string) {
	fields := logrus.Fields{
		"scenario": scenario,
		"status":   status,
	}
	if len(warnings) > 0 {
		fields["warnings"] = warnings
	}
	entry := l.with(fields)

	msg := "Scenario " + status
	if message != "" {
		msg += ": " + message
	}

	switch status {
	case "success":
		entry.Info(msg)
	case "indeterminate":
		entry.Warn(msg)
	default:
		entry.Error(msg)
	}
}

// RunSummary logs per-status counts at the end of a run
func (l *Logger) RunSummary(runID string, counts map[string]int) {
	fields := logrus.Fields{"run_id": runID}
	for status, n := range counts {
		fields[status] = n
	}
	l.with(fields).Info("Run complete")
}

// SecurityEvent logs anti-forgery and bot-defence observations
func (l *Logger) SecurityEvent(eventType string, details string) {
	l.with(logrus.Fields{
		"security_event": eventType,
		"details":        details,
	}).Warn("Security event detected")
}

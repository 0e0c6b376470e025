// Package logging builds the structured logger shared by the server.
package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

const Prefix = "taskboard"

type Options struct {
	Level  string
	Format string
}

// New returns a leveled logger writing to w.
func New(w io.Writer, opts Options) (*log.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          Prefix,
	}), nil
}

func ParseLevel(level string) (log.Level, error) {
	switch level {
	case "", "info":
		return log.InfoLevel, nil
	case "warning":
		return log.WarnLevel, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log level %q: %w", level, err)
	}
	return lvl, nil
}

func ParseFormat(format string) (log.Formatter, error) {
	switch format {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", format)
	}
}

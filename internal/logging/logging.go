// Package logging configures the operational logger shared by the commands.
// User-facing results go through internal/ui; this logger carries
// diagnostics such as timings, store access and watch events.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(textFormatter())
	return l
}

func textFormatter() *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: !isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// Setup sets the level and format of the shared logger. An empty level
// keeps the current one.
func Setup(level string, json bool, out io.Writer) error {
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("logging: %w", err)
		}
		log.SetLevel(lvl)
	}
	if json {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(textFormatter())
	}
	if out != nil {
		log.SetOutput(out)
	}
	return nil
}

// L returns the shared logger.
func L() *logrus.Logger {
	return log
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return log.WithField("component", component)
}

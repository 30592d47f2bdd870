// Package logging provides the leveled logging used across the library.
//
// It is a thin wrapper over the sirupsen/logrus package so that callers
// never import logrus directly and the backend can be swapped without
// touching call sites.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
}

// SetVerbose enables or disables debug level output.
func SetVerbose(verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// SetQuiet suppresses everything below the error level.
func SetQuiet(quiet bool) {
	if quiet {
		log.SetLevel(logrus.ErrorLevel)
	}
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Debugf logs a debug level message.
func Debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

// Infof logs an info level message.
func Infof(format string, args ...any) {
	log.Infof(format, args...)
}

// Warnf logs a warning level message.
func Warnf(format string, args ...any) {
	log.Warnf(format, args...)
}

// Errorf logs an error level message.
func Errorf(format string, args ...any) {
	log.Errorf(format, args...)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields map[string]any) *logrus.Entry {
	return log.WithFields(logrus.Fields(fields))
}

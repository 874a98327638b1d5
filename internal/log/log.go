// Package log configures the process-wide logrus logger, matching the
// teacher's logrus.WithFields idiom (internal/httputil in the source
// dendrite tree) without the file-rotation hooks the retrieved source never
// exercised with a concrete call site.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logger's level and formatter. Call once at
// process start.
func Setup(level string) {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// WithComponent returns a logger entry tagged with the originating
// component, the convention every package in this module follows instead of
// carrying its own logger type.
func WithComponent(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

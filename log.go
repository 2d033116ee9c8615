package portal

import (
	"os"
	"sync"

	logger "github.com/kthomas/go-logger"
)

// Logger is the logging surface anchors report through.
// *logger.Logger from github.com/kthomas/go-logger satisfies it.
type Logger interface {
	Debugf(msg string, v ...interface{})
	Warningf(msg string, v ...interface{})
	Errorf(msg string, v ...interface{})
}

var (
	defaultOnce   sync.Once
	defaultLogger Logger
)

// DefaultLogger returns the process wide logger used when no WithLogger
// option is given. Its level comes from PORTAL_LOG_LEVEL and defaults to warn.
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		lvl := os.Getenv("PORTAL_LOG_LEVEL")
		if lvl == "" {
			lvl = "warn"
		}
		defaultLogger = logger.NewLogger("portal", lvl, nil)
	})
	return defaultLogger
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})   {}
func (nopLogger) Warningf(string, ...interface{}) {}
func (nopLogger) Errorf(string, ...interface{})   {}

// Package monitoring holds the process-wide diagnostic loggers used by the
// group finder, trial runner and results store.
package monitoring

import (
	"log"

	"go.uber.org/zap"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger or UseZap. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf receives per-group detail from debug progress mode. Muted by default.
var Debugf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// Warnf receives conditions that do not fail a run, such as a group that hit
// the iteration cap before converging.
var Warnf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// UseZap routes Logf, Debugf and Warnf through l. A nil logger mutes all three.
func UseZap(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s := l.Sugar()
	Logf = s.Infof
	Debugf = s.Debugf
	Warnf = s.Warnf
}

// NewLogger builds the production zap logger used by the CLI. Verbose lowers
// the level to debug.
func NewLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return config.Build()
}

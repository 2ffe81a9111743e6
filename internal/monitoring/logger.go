package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// and may be redirected or muted via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// Verbose gates Debugf. The CLI flips it on with --verbose.
var Verbose bool

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Debugf logs through Logf only when Verbose is set. Nothing in this module
// calls it; in particular the zfm engine does not log wire traffic.
func Debugf(format string, v ...interface{}) {
	if Verbose {
		Logf(format, v...)
	}
}

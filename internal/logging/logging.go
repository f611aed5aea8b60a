// Package logging constructs the process-wide logger.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a leveled logger writing to w (stderr when nil). Verbose mode
// lowers the level to debug and reports callers.
func New(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true}
	if verbose {
		opts.Level = log.DebugLevel
		opts.ReportCaller = true
	}
	return log.NewWithOptions(w, opts)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Package logger builds the zerolog loggers used across glowpos. Persistence
// and replication failures are logged here and swallowed; validation errors
// are returned to callers instead of logged.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0664

// Build configures a logger destination before Make is called.
type Build struct {
	writer io.Writer
	path   string
}

// New starts a logger build writing to stderr.
func New() *Build {
	return &Build{}
}

// FromPath routes log output to an append-only file.
func (b *Build) FromPath(path string) *Build {
	b.path = path
	return b
}

// FromBuffer routes log output to an arbitrary writer. Used by tests to
// capture output.
func (b *Build) FromBuffer(w io.Writer) *Build {
	b.writer = w
	return b
}

// Make builds the logger. Component loggers are derived from the returned
// logger with `.With().Str("component", ...)`.
func (b *Build) Make() (zerolog.Logger, error) {
	w := b.writer
	if w == nil {
		w = os.Stderr
	}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), err
		}
		w = zerolog.SyncWriter(f)
	}
	return zerolog.New(w).With().Timestamp().Logger(), nil
}

// Nop returns a disabled logger for components constructed without one.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

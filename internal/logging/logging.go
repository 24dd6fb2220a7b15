// Package logging wires up the zerolog.Logger shared by package wsconn
// and the wsecho CLI.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger writing JSON to stderr, or a human-readable
// console writer when pretty is true (the CLI's --pretty-log flag).
func New(pretty bool) zerolog.Logger {
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

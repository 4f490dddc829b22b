// Package logger provides the configured zerolog logger.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a zerolog.Logger tagged with the service name. Development
// environments get the human-readable console writer.
func New(serviceName, appEnv string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	return zerolog.New(out).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// Init builds the service logger and installs it as the package-level logger
// used through github.com/rs/zerolog/log.
func Init(serviceName, appEnv string) zerolog.Logger {
	l := New(serviceName, appEnv)
	log.Logger = l
	return l
}

// Package log builds the application logger.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger configured for the given environment.
// Outside production the level drops to debug and output stays colored.
func New(environment string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Logger()

	if environment != "production" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	return logger
}

// +build !logless

package logger

import (
	"os"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
)

var Log = logger.With().Caller().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// Named returns Log tagged with a component field, for the turret
// daemon's per-subsystem loggers (tracker, controller, stepper drivers).
func Named(component string) zerolog.Logger {
	return Log.With().Str("component", component).Logger()
}

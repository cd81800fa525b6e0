// Package calibration runs the pitch axis's one-time homing routine
// against its optional homing switch before normal operation starts.
package calibration

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PitchHomer is the subset of stepper.Pitch that homing needs.
type PitchHomer interface {
	Home(direction, reference float32) error
	CurrentAngle() float32
}

// Direction is the sign of travel used while homing; the DRV8825 driver
// only cares about its sign, not its magnitude.
const Direction float32 = -1

// Run drives the pitch axis toward its homing switch and, once
// triggered, fixes the current angle at reference. It is a no-op wrapped
// error (not a crash) if pitch has no homing switch wired.
func Run(pitch PitchHomer, reference float32, log zerolog.Logger) error {
	start := time.Now()
	log.Info().Msg("pitch homing started")

	if err := pitch.Home(Direction, reference); err != nil {
		return fmt.Errorf("calibration: pitch homing failed: %w", err)
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Float32("angle", pitch.CurrentAngle()).
		Msg("pitch homing complete")
	return nil
}

package stepper

import "errors"

// ErrConfiguration is the domain error kind for configuration mistakes:
// missing required step/dir pins (from NewYaw and NewPitch) and negative
// transition durations (from Pitch.SetPosition). Other invalid pin numbers
// are reported as devices.ErrInvalidInputPin.
var ErrConfiguration = errors.New("stepper: invalid configuration")

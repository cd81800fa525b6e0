package stepper

import "github.com/foxis/turretd/x/devices"

// Valve is the solenoid water valve: a single idempotent on/off pin.
type Valve struct {
	pin devices.Pin
}

// NewValve wraps an already-opened output pin as a Valve.
func NewValve(pin devices.Pin) *Valve {
	return &Valve{pin: pin}
}

func (v *Valve) PowerOn()  { v.pin.High() }
func (v *Valve) PowerOff() { v.pin.Low() }

// IsPowered reports the valve's current state.
func (v *Valve) IsPowered() bool { return v.pin.Get() }

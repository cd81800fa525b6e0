// Package stepper implements DRV8825-style microstepping yaw (rate) and
// pitch (position) stepper drivers, plus the solenoid valve.
package stepper

import (
	"github.com/foxis/turretd/x/devices"
)

// Pin value conventions for configuration: -1 means hard-wired low
// (e.g. a microstep-select line tied directly to ground on the board),
// -2 means hard-wired high, and any value >= 0 names a real GPIO pin to
// open. This lets a driver configuration describe boards where only some
// microstep-select lines are actually wired to the controller.
const (
	PinHardLow  = -1
	PinHardHigh = -2
)

// constPin is a devices.Pin that ignores Set and always reads back a
// fixed level, used for hard-wired configuration pins.
type constPin struct{ level bool }

func (p constPin) Get() bool                                             { return p.level }
func (p constPin) Set(bool)                                              {}
func (p constPin) High()                                                 {}
func (p constPin) Low()                                                  {}
func (p constPin) SetInterrupt(devices.PinChange, func(devices.Pin)) error {
	return devices.ErrNotSupported
}

// ResolvePin opens a real pin via open when pinNum >= 0, or returns a
// constant pin for the two hard-wired sentinel values.
func ResolvePin(pinNum int, open func(int) (devices.Pin, error)) (devices.Pin, error) {
	switch {
	case pinNum == PinHardLow:
		return constPin{level: false}, nil
	case pinNum == PinHardHigh:
		return constPin{level: true}, nil
	case pinNum >= 0:
		return open(pinNum)
	default:
		return nil, devices.ErrInvalidInputPin
	}
}

// resolveMicrostepPins opens the three microstep-select lines and
// derives the set of microstep levels actually selectable given which of
// them (if any) are hard-wired.
func resolveMicrostepPins(pins DriverPins, open func(int) (devices.Pin, error)) (levels []int, ms0, ms1, ms2 devices.Pin, err error) {
	ms0, err = ResolvePin(pins.MS0, open)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ms1, err = ResolvePin(pins.MS1, open)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ms2, err = ResolvePin(pins.MS2, open)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	wired := func(pinNum int) *bool {
		switch pinNum {
		case PinHardLow:
			v := false
			return &v
		case PinHardHigh:
			v := true
			return &v
		default:
			return nil
		}
	}
	levels = availableLevels(wired(pins.MS0), wired(pins.MS1), wired(pins.MS2))
	return levels, ms0, ms1, ms2, nil
}

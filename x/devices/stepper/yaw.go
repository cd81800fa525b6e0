package stepper

import (
	"fmt"
	"sync"

	"github.com/foxis/turretd/x/devices"
)

// YawConfig bundles a rate-controlled driver's pins and physical
// constants.
type YawConfig struct {
	Pins YawPins

	StepSize    float32 // radians per full step
	MinStepFreq float32 // full-step pulses/sec the driver can sustain at m=0
	MaxVelocity float32 // rad/s
}

// YawPins is DriverPins plus the hard-wired/real distinction each line
// needs resolved at construction.
type YawPins = DriverPins

// Yaw is the rate-controlled yaw axis: set_velocity chooses a microstep
// level and direction, then programs the step output as a PWM pulse
// train at that rate with 50% duty.
type Yaw struct {
	mu sync.Mutex

	cfg              YawConfig
	dirPin           devices.Pin
	sleepPin         devices.Pin
	ms0, ms1, ms2    devices.Pin
	pwm              devices.PWM
	available        []int

	running bool
}

// NewYaw builds a Yaw driver. openPin resolves a real GPIO pin number to
// a devices.Pin (e.g. Linux sysfs); pwmDevice provides the step output
// channel.
func NewYaw(cfg YawConfig, pwmDevice devices.PWMDevice, openPin func(int) (devices.Pin, error)) (*Yaw, error) {
	if cfg.Pins.Step < 0 {
		return nil, fmt.Errorf("stepper: yaw step pin is required: %w", ErrConfiguration)
	}
	if cfg.Pins.Dir < 0 {
		return nil, fmt.Errorf("stepper: yaw dir pin is required: %w", ErrConfiguration)
	}

	stepPin, err := openPin(cfg.Pins.Step)
	if err != nil {
		return nil, fmt.Errorf("stepper: open yaw step pin: %w", err)
	}
	dirPin, err := ResolvePin(cfg.Pins.Dir, openPin)
	if err != nil {
		return nil, fmt.Errorf("stepper: open yaw dir pin: %w", err)
	}
	sleepPin, err := ResolvePin(cfg.Pins.Sleep, openPin)
	if err != nil {
		return nil, fmt.Errorf("stepper: open yaw sleep pin: %w", err)
	}

	available, ms0, ms1, ms2, err := resolveMicrostepPins(cfg.Pins, openPin)
	if err != nil {
		return nil, err
	}

	pwm, err := pwmDevice.Channel(stepPin)
	if err != nil {
		return nil, fmt.Errorf("stepper: yaw PWM channel: %w", err)
	}

	y := &Yaw{
		cfg:       cfg,
		dirPin:    dirPin,
		sleepPin:  sleepPin,
		ms0:       ms0,
		ms1:       ms1,
		ms2:       ms2,
		pwm:       pwm,
		available: available,
	}
	return y, nil
}

func (y *Yaw) setMS(level int) {
	b0, b1, b2 := msLevelBits(level)
	y.ms0.Set(b0)
	y.ms1.Set(b1)
	y.ms2.Set(b2)
}

// SetVelocity programs the yaw axis to slew at omega rad/s. omega == 0
// disables pulse output and sleeps the driver.
func (y *Yaw) SetVelocity(omega float32) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if omega == 0 {
		if y.running {
			if err := y.pwm.Stop(); err != nil {
				return err
			}
			y.sleepPin.Low()
			y.running = false
		}
		return nil
	}

	if omega > y.cfg.MaxVelocity {
		omega = y.cfg.MaxVelocity
	} else if omega < -y.cfg.MaxVelocity {
		omega = -y.cfg.MaxVelocity
	}

	m := chooseMicrostep(y.cfg.StepSize, y.cfg.MinStepFreq, omega, y.available)
	y.dirPin.Set(omega > 0)
	y.setMS(m)
	y.sleepPin.High()

	period := (y.cfg.StepSize / pow2f(m)) / absf(omega)
	if err := y.pwm.SetPeriod(period); err != nil {
		return fmt.Errorf("stepper: yaw set period: %w", err)
	}
	if err := y.pwm.Set(0.5); err != nil {
		return fmt.Errorf("stepper: yaw set duty: %w", err)
	}
	if err := y.pwm.Enable(true); err != nil {
		return fmt.Errorf("stepper: yaw enable: %w", err)
	}
	y.running = true
	return nil
}

func pow2f(m int) float32 {
	v := float32(1)
	for i := 0; i < m; i++ {
		v *= 2
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

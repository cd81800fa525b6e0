package stepper

import (
	"fmt"
	"sync"
	"time"

	"github.com/foxis/turretd/x/devices"
)

// PitchConfig bundles a position-controlled driver's pins and physical
// constants.
type PitchConfig struct {
	Pins DriverPins

	StepSize      float32       // radians per full step
	MinStepFreq   float32       // full-step pulses/sec the driver can sustain at m=0
	MaxVelocity   float32       // rad/s
	MinStepPeriod time.Duration // floor on the pulse period

	// HomingPin is an optional input pin read low when the homing switch
	// is triggered; -1 means no homing switch is wired.
	HomingPin int
}

// Pitch is the position-controlled pitch axis: set_position stores a
// target angle and transition duration and wakes an internal worker,
// which emits a software-timed pulse train, re-planning whenever a fresh
// target arrives mid-transition.
type Pitch struct {
	mu sync.Mutex

	cfg       PitchConfig
	dirPin    devices.Pin
	sleepPin  devices.Pin
	stepPin   devices.Pin
	ms0, ms1, ms2 devices.Pin
	homingPin devices.Pin
	available []int

	current  float32
	target   float32
	duration time.Duration

	notify chan struct{}
	stopCh chan struct{}
	closed bool
}

// NewPitch builds a Pitch driver and starts its worker goroutine.
func NewPitch(cfg PitchConfig, openPin func(int) (devices.Pin, error)) (*Pitch, error) {
	if cfg.Pins.Step < 0 {
		return nil, fmt.Errorf("stepper: pitch step pin is required: %w", ErrConfiguration)
	}
	if cfg.Pins.Dir < 0 {
		return nil, fmt.Errorf("stepper: pitch dir pin is required: %w", ErrConfiguration)
	}

	stepPin, err := openPin(cfg.Pins.Step)
	if err != nil {
		return nil, fmt.Errorf("stepper: open pitch step pin: %w", err)
	}
	dirPin, err := ResolvePin(cfg.Pins.Dir, openPin)
	if err != nil {
		return nil, fmt.Errorf("stepper: open pitch dir pin: %w", err)
	}
	sleepPin, err := ResolvePin(cfg.Pins.Sleep, openPin)
	if err != nil {
		return nil, fmt.Errorf("stepper: open pitch sleep pin: %w", err)
	}
	available, ms0, ms1, ms2, err := resolveMicrostepPins(cfg.Pins, openPin)
	if err != nil {
		return nil, err
	}

	var homingPin devices.Pin
	if cfg.HomingPin >= 0 {
		homingPin, err = openPin(cfg.HomingPin)
		if err != nil {
			return nil, fmt.Errorf("stepper: open pitch homing pin: %w", err)
		}
	}
	if cfg.MinStepPeriod <= 0 {
		cfg.MinStepPeriod = time.Millisecond
	}

	p := &Pitch{
		cfg:       cfg,
		dirPin:    dirPin,
		sleepPin:  sleepPin,
		stepPin:   stepPin,
		ms0:       ms0,
		ms1:       ms1,
		ms2:       ms2,
		homingPin: homingPin,
		available: available,
		notify:    make(chan struct{}),
		stopCh:    make(chan struct{}),
	}
	go p.worker()
	return p, nil
}

func (p *Pitch) setMS(level int) {
	b0, b1, b2 := msLevelBits(level)
	p.ms0.Set(b0)
	p.ms1.Set(b1)
	p.ms2.Set(b2)
}

// SetPosition stores a new target angle and transition duration and wakes
// the worker.
func (p *Pitch) SetPosition(angle float32, duration time.Duration) error {
	if duration < 0 {
		return fmt.Errorf("stepper: negative transition duration: %w", ErrConfiguration)
	}

	p.mu.Lock()
	p.target = angle
	p.duration = duration
	old := p.notify
	p.notify = make(chan struct{})
	p.mu.Unlock()

	close(old)
	return nil
}

// CurrentAngle reports the worker's latest position estimate.
func (p *Pitch) CurrentAngle() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close stops the worker goroutine.
func (p *Pitch) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	close(p.stopCh)
	return nil
}

func (p *Pitch) worker() {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		if p.current == p.target {
			p.sleepPin.Low()
			notify := p.notify
			p.mu.Unlock()
			select {
			case <-notify:
				continue
			case <-p.stopCh:
				return
			}
		}
		target, duration, current, notify := p.target, p.duration, p.current, p.notify
		p.mu.Unlock()

		if duration <= 0 {
			p.mu.Lock()
			p.current = target
			p.mu.Unlock()
			continue
		}

		omega := (target - current) / float32(duration.Seconds())
		if omega > p.cfg.MaxVelocity {
			omega = p.cfg.MaxVelocity
		} else if omega < -p.cfg.MaxVelocity {
			omega = -p.cfg.MaxVelocity
		}
		if omega == 0 {
			p.mu.Lock()
			p.current = target
			p.mu.Unlock()
			continue
		}

		m := chooseMicrostep(p.cfg.StepSize, p.cfg.MinStepFreq, omega, p.available)
		step := p.cfg.StepSize / pow2f(m)
		if omega < 0 {
			step = -step
		}
		period := time.Duration(absf(step/omega) * float32(time.Second))
		if period < p.cfg.MinStepPeriod {
			period = p.cfg.MinStepPeriod
		}
		n := int(absf((target - current) / step))
		if n == 0 {
			// Less than one microstep remains: the transition is done, so
			// settle on the target and let the idle branch sleep the driver.
			p.mu.Lock()
			if p.target == target {
				p.current = target
			}
			p.mu.Unlock()
			continue
		}

		p.dirPin.Set(omega > 0)
		p.setMS(m)
		p.sleepPin.High()

		if !p.runPulseTrain(n, step, period, notify) {
			return
		}
	}
}

// runPulseTrain emits up to n pulses of the given period, returning false
// if the worker was stopped, true if it completed the train or was
// interrupted by a fresh SetPosition call (re-plan).
func (p *Pitch) runPulseTrain(n int, step float32, period time.Duration, notify chan struct{}) bool {
	wait := period - p.cfg.MinStepPeriod
	if wait < 0 {
		wait = 0
	}
	for i := 0; i < n; i++ {
		p.stepPin.High()
		time.Sleep(period / 2)
		p.stepPin.Low()
		time.Sleep(period / 2)

		p.mu.Lock()
		p.current += step
		p.mu.Unlock()

		select {
		case <-notify:
			return true
		case <-p.stopCh:
			return false
		case <-time.After(wait):
		}
	}
	return true
}

// Home steps in direction (its sign only matters) until the homing
// switch reads low, then sets the current angle to reference.
func (p *Pitch) Home(direction float32, reference float32) error {
	if p.homingPin == nil {
		return devices.ErrNotSupported
	}

	p.mu.Lock()
	p.dirPin.Set(direction > 0)
	p.sleepPin.High()
	p.mu.Unlock()

	for p.homingPin.Get() {
		p.stepPin.High()
		time.Sleep(p.cfg.MinStepPeriod / 2)
		p.stepPin.Low()
		time.Sleep(p.cfg.MinStepPeriod / 2)
	}

	p.mu.Lock()
	p.current = reference
	p.target = reference
	p.sleepPin.Low()
	p.mu.Unlock()
	return nil
}

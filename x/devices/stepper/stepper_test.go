package stepper

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foxis/turretd/x/devices"
)

type fakePin struct {
	mu    sync.Mutex
	level bool
}

func (p *fakePin) Get() bool { p.mu.Lock(); defer p.mu.Unlock(); return p.level }
func (p *fakePin) Set(v bool) { p.mu.Lock(); p.level = v; p.mu.Unlock() }
func (p *fakePin) High()      { p.Set(true) }
func (p *fakePin) Low()       { p.Set(false) }
func (p *fakePin) SetInterrupt(devices.PinChange, func(devices.Pin)) error {
	return devices.ErrNotSupported
}

func newOpener() (func(int) (devices.Pin, error), map[int]*fakePin) {
	pins := make(map[int]*fakePin)
	var mu sync.Mutex
	open := func(n int) (devices.Pin, error) {
		mu.Lock()
		defer mu.Unlock()
		p, ok := pins[n]
		if !ok {
			p = &fakePin{}
			pins[n] = p
		}
		return p, nil
	}
	return open, pins
}

type fakePWM struct {
	mu      sync.Mutex
	period  float32
	duty    float32
	enabled bool
}

func (f *fakePWM) Set(duty float32) error            { f.mu.Lock(); f.duty = duty; f.mu.Unlock(); return nil }
func (f *fakePWM) SetMicroseconds(uint32) error       { return nil }
func (f *fakePWM) Stop() error                        { f.mu.Lock(); f.enabled = false; f.duty = 0; f.mu.Unlock(); return nil }
func (f *fakePWM) SetPeriod(seconds float32) error    { f.mu.Lock(); f.period = seconds; f.mu.Unlock(); return nil }
func (f *fakePWM) Enable(enabled bool) error          { f.mu.Lock(); f.enabled = enabled; f.mu.Unlock(); return nil }

type fakePWMDevice struct{ ch *fakePWM }

func (d *fakePWMDevice) Channel(devices.Pin) (devices.PWM, error) { return d.ch, nil }
func (d *fakePWMDevice) Configure(uint32) error                   { return nil }
func (d *fakePWMDevice) SetFrequency(uint32) error                { return nil }

func TestYaw_SetVelocity_ProgramsPWMAndSleepsOnZero(t *testing.T) {
	t.Parallel()

	open, pins := newOpener()
	pwm := &fakePWM{}
	y, err := NewYaw(YawConfig{
		Pins:        DriverPins{Step: 1, Dir: 2, Sleep: 3, MS0: PinHardLow, MS1: PinHardLow, MS2: PinHardLow},
		StepSize:    0.0314,
		MinStepFreq: 200,
		MaxVelocity: 5,
	}, &fakePWMDevice{ch: pwm}, open)
	require.NoError(t, err)

	require.NoError(t, y.SetVelocity(1.0))
	require.True(t, pins[3].Get(), "sleep pin should be woken")
	require.True(t, pins[2].Get(), "dir pin should be high for positive omega")
	require.Greater(t, pwm.period, float32(0))
	require.Equal(t, float32(0.5), pwm.duty)
	require.True(t, pwm.enabled)

	require.NoError(t, y.SetVelocity(0))
	require.False(t, pins[3].Get(), "sleep pin should go low when stopped")
	require.False(t, pwm.enabled)
}

func TestYaw_SetVelocity_ClampsToMax(t *testing.T) {
	t.Parallel()

	open, pins := newOpener()
	pwm := &fakePWM{}
	y, err := NewYaw(YawConfig{
		Pins:        DriverPins{Step: 1, Dir: 2, Sleep: 3, MS0: PinHardLow, MS1: PinHardLow, MS2: PinHardLow},
		StepSize:    0.0314,
		MinStepFreq: 200,
		MaxVelocity: 2,
	}, &fakePWMDevice{ch: pwm}, open)
	require.NoError(t, err)

	require.NoError(t, y.SetVelocity(-100))
	require.False(t, pins[2].Get(), "dir pin should be low for negative omega")
	// Only full steps are available, so the period is StepSize / |clamped omega|.
	require.InDelta(t, 0.0314/2, pwm.period, 1e-6)
}

func TestNewYaw_RequiresStepAndDirPins(t *testing.T) {
	t.Parallel()

	open, _ := newOpener()
	_, err := NewYaw(YawConfig{Pins: DriverPins{Step: -1, Dir: 2}}, &fakePWMDevice{ch: &fakePWM{}}, open)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestPitch_SetPosition_MovesToTargetAndStops(t *testing.T) {
	t.Parallel()

	open, pins := newOpener()
	p, err := NewPitch(PitchConfig{
		Pins:          DriverPins{Step: 10, Dir: 11, Sleep: 12, MS0: PinHardLow, MS1: PinHardLow, MS2: PinHardLow},
		StepSize:      0.05,
		MinStepFreq:   200,
		MaxVelocity:   10,
		MinStepPeriod: time.Millisecond,
		HomingPin:     -1,
	}, open)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SetPosition(0.5, 50*time.Millisecond))

	require.Eventually(t, func() bool {
		return p.CurrentAngle() >= 0.45
	}, time.Second, time.Millisecond, "pitch should converge to target")
	require.Eventually(t, func() bool {
		return !pins[12].Get()
	}, time.Second, time.Millisecond, "pitch driver should sleep once the target is reached")
}

func TestPitch_SetPosition_RejectsNegativeDuration(t *testing.T) {
	t.Parallel()

	open, _ := newOpener()
	p, err := NewPitch(PitchConfig{
		Pins:      DriverPins{Step: 10, Dir: 11, Sleep: 12, MS0: PinHardLow, MS1: PinHardLow, MS2: PinHardLow},
		HomingPin: -1,
	}, open)
	require.NoError(t, err)
	defer p.Close()

	err = p.SetPosition(1, -time.Millisecond)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestPitch_Home_StopsWhenSwitchTriggers(t *testing.T) {
	t.Parallel()

	open, pins := newOpener()
	homingPinNum := 20
	p, err := NewPitch(PitchConfig{
		Pins:          DriverPins{Step: 10, Dir: 11, Sleep: 12, MS0: PinHardLow, MS1: PinHardLow, MS2: PinHardLow},
		StepSize:      0.05,
		MinStepFreq:   200,
		MaxVelocity:   10,
		MinStepPeriod: time.Millisecond,
		HomingPin:     homingPinNum,
	}, open)
	require.NoError(t, err)
	defer p.Close()

	homing := pins[homingPinNum]
	homing.Set(true) // switch not yet triggered: Get() == true keeps stepping

	done := make(chan error, 1)
	go func() {
		done <- p.Home(1, 0.25)
	}()

	time.Sleep(5 * time.Millisecond)
	homing.Set(false) // switch triggers: Get() == false stops the loop

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Home did not return after homing switch triggered")
	}
	require.Equal(t, float32(0.25), p.CurrentAngle())
}

func TestValve_PowerOnOff(t *testing.T) {
	t.Parallel()

	pin := &fakePin{}
	v := NewValve(pin)
	require.False(t, v.IsPowered())
	v.PowerOn()
	require.True(t, v.IsPowered())
	v.PowerOff()
	require.False(t, v.IsPowered())
}

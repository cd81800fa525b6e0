package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/foxis/turretd/pkg/turret/ballistics"
	"github.com/foxis/turretd/pkg/turret/geom"
	"github.com/foxis/turretd/pkg/turret/planner"
	"github.com/foxis/turretd/pkg/turret/tracker"
)

type fakeYaw struct {
	mu    sync.Mutex
	calls []float32
}

func (f *fakeYaw) SetVelocity(omega float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, omega)
	return nil
}

func (f *fakeYaw) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeYaw) last() float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakePitch struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePitch) SetPosition(angle float32, duration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func waitForCount(t *testing.T, f *fakeYaw, n int) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if f.count() >= n {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d yaw calls, got %d", n, f.count())
		case <-time.After(time.Millisecond):
		}
	}
}

func newTestController(t *testing.T) (*Controller, *fakeYaw, *fakePitch, *tracker.Table) {
	t.Helper()
	table := tracker.NewTable()
	p := planner.New(planner.Config{
		AimPeriod:          100 * time.Millisecond,
		MaxYawVelocity:     2.0,
		MaxYawAcceleration: 6.0,
		SearchYawVelocity:  0.5,
		InitialN:           4,
		GrowthFactor:       2,
		MaxN:               16,
	}, ballistics.DefaultConstants(10))

	yaw := &fakeYaw{}
	pitch := &fakePitch{}
	ctrl := New(Config{SearchYawVelocity: 0.5}, p, table,
		ballistics.DefaultConstants(10),
		ballistics.ScoringParams{HFOV: 1.2, MaxDepth: 6},
		yaw, pitch, zerolog.Nop(), fixedClock{t: time.Now()})
	return ctrl, yaw, pitch, table
}

func TestController_Run_DispatchesBootstrapSearchSegment(t *testing.T) {
	t.Parallel()

	ctrl, yaw, pitch, _ := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Run(ctx)

	waitForCount(t, yaw, 1)
	require.Equal(t, float32(0.5), yaw.last())
	require.GreaterOrEqual(t, pitch.calls, 1)
}

func TestController_Run_ReplansOnDetectedFrame(t *testing.T) {
	t.Parallel()

	ctrl, yaw, _, table := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Run(ctx)
	waitForCount(t, yaw, 1) // bootstrap dispatch

	table.Replace([]geom.TrackedUser{
		{
			ID:        "u1",
			Timestamp: time.Now(),
			CoM:       geom.PolarCoM{Yaw: 0.4, Height: 1.0, GroundRange: 3.0},
		},
	})

	waitForCount(t, yaw, 2)
}

func TestController_ProjectDynamic_NoMotionIsIdentity(t *testing.T) {
	t.Parallel()

	ctrl, _, _, _ := newTestController(t)
	now := time.Now()
	u := geom.TrackedUser{ID: "u1", Timestamp: now, CoM: geom.PolarCoM{Yaw: 0.1, Height: 1, GroundRange: 2}}

	got := ctrl.ProjectDynamic(u, now)
	require.InDelta(t, 0.1, got.CoM.Yaw, 1e-6)
}

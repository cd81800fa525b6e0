package planner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foxis/turretd/pkg/turret/ballistics"
	"github.com/foxis/turretd/pkg/turret/geom"
	"github.com/foxis/turretd/pkg/turret/motion"
)

func TestCalculateFutureMovements_StationaryTarget(t *testing.T) {
	t.Parallel()

	cfg := Config{
		AimPeriod:          100 * time.Millisecond,
		MaxYawVelocity:     2,
		MaxYawAcceleration: 10,
		SearchYawVelocity:  0.5,
		InitialN:           5,
		GrowthFactor:       2,
		MaxN:               40,
	}
	constants := ballistics.Constants{WaterRate: 10, AirResistance: 0, Gravity: ballistics.Gravity}
	p := New(cfg, constants)

	now := time.Unix(0, 0)
	target := geom.TrackedUser{
		ID:        "u1",
		Timestamp: now,
		CoM:       geom.PolarCoM{Yaw: 0.4, Height: 0, GroundRange: 5},
	}
	current := motion.SingleMovement{StartTime: now, Duration: cfg.AimPeriod, YawRate: 0}

	moves, ok := p.CalculateFutureMovements(target, current, now)
	require.True(t, ok)
	require.Len(t, moves, cfg.InitialN)

	// Every segment obeys the velocity bound.
	for _, m := range moves {
		require.LessOrEqual(t, m.YawRate, cfg.MaxYawVelocity+1e-3)
		require.GreaterOrEqual(t, m.YawRate, -cfg.MaxYawVelocity-1e-3)
	}

	// The horizon should converge the turret toward the target's bearing by
	// the end of the plan.
	totalAngle := float32(0)
	dt := float32(cfg.AimPeriod.Seconds())
	for _, m := range moves {
		totalAngle += m.YawRate * dt
	}
	require.InDelta(t, 0.4, totalAngle, 0.05)
}

func TestCalculateFutureMovements_RespectsAccelerationStep(t *testing.T) {
	t.Parallel()

	cfg := Config{
		AimPeriod:          30 * time.Millisecond,
		MaxYawVelocity:     4,
		MaxYawAcceleration: math.Pi,
		SearchYawVelocity:  0.5,
		InitialN:           8,
		GrowthFactor:       2,
		MaxN:               64,
	}
	maxStep := cfg.MaxYawAcceleration * float32(cfg.AimPeriod.Seconds())
	constants := ballistics.Constants{WaterRate: 10, AirResistance: 0, Gravity: ballistics.Gravity}
	p := New(cfg, constants)

	now := time.Unix(0, 0)
	target := geom.TrackedUser{
		ID:        "u1",
		Timestamp: now,
		CoM:       geom.PolarCoM{Yaw: 1.2, Height: 0, GroundRange: 5},
	}
	current := motion.SingleMovement{StartTime: now, Duration: cfg.AimPeriod, YawRate: 0}

	moves, ok := p.CalculateFutureMovements(target, current, now)
	require.True(t, ok)
	require.NotEmpty(t, moves)

	prev := current.YawRate
	for _, m := range moves {
		require.LessOrEqual(t, math.Abs(float64(m.YawRate-prev)), float64(maxStep)+1e-3)
		prev = m.YawRate
	}
}

func TestCalculateFutureMovements_InfeasibleGrowsHorizon(t *testing.T) {
	t.Parallel()

	// A vanishingly small acceleration limit with a tight MaxN forces the
	// short horizon to be infeasible for a large bearing change, so the
	// planner must report failure rather than loop forever.
	cfg := Config{
		AimPeriod:          100 * time.Millisecond,
		MaxYawVelocity:     0.01,
		MaxYawAcceleration: 0.001,
		SearchYawVelocity:  0.1,
		InitialN:           2,
		GrowthFactor:       2,
		MaxN:               4,
	}
	constants := ballistics.Constants{WaterRate: 10, AirResistance: 0, Gravity: ballistics.Gravity}
	p := New(cfg, constants)

	now := time.Unix(0, 0)
	target := geom.TrackedUser{
		ID:        "u1",
		Timestamp: now,
		CoM:       geom.PolarCoM{Yaw: 3.0, Height: 0, GroundRange: 5},
	}
	current := motion.SingleMovement{StartTime: now, Duration: cfg.AimPeriod, YawRate: 0}

	_, ok := p.CalculateFutureMovements(target, current, now)
	require.False(t, ok)
}

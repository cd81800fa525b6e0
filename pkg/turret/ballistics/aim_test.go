package ballistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foxis/turretd/pkg/turret/geom"
)

func stationaryUser(yaw, height, groundRange float32) geom.TrackedUser {
	return geom.TrackedUser{
		ID:        "u1",
		Timestamp: time.Unix(0, 0),
		CoM:       geom.PolarCoM{Yaw: yaw, Height: height, GroundRange: groundRange},
	}
}

func TestCalculateAim_StationaryTarget(t *testing.T) {
	t.Parallel()

	u := stationaryUser(0, 0, 5)
	c := Constants{WaterRate: 10, AirResistance: 0, Gravity: Gravity}

	sol := CalculateAim(u, c)
	require.True(t, sol.Reachable)
	require.InDelta(t, 0, sol.Aim.Yaw, 1e-4)
	require.InDelta(t, 0.5169, sol.TimeOfFlight, 1e-3)

	wantPitch := 14.64 * (3.14159265 / 180)
	require.InDelta(t, wantPitch, sol.Aim.Pitch, 1e-2)
}

func TestCalculateAim_Unreachable(t *testing.T) {
	t.Parallel()

	u := stationaryUser(0, 0, 5)
	c := Constants{WaterRate: 3, AirResistance: 0, Gravity: Gravity}

	sol := CalculateAim(u, c)
	require.False(t, sol.Reachable)
}

func TestCalculateAim_CoincidentWithCamera(t *testing.T) {
	t.Parallel()

	u := stationaryUser(0.7, 0, 0)
	c := Constants{WaterRate: 10, AirResistance: 0, Gravity: Gravity}

	sol := CalculateAim(u, c)
	require.True(t, sol.Reachable)
	require.InDelta(t, 0.7, sol.Aim.Yaw, 1e-6)
	require.InDelta(t, 0, sol.Aim.Pitch, 1e-6)
}

func TestCalculateAim_RecedingFasterThanMuzzleSpeed(t *testing.T) {
	t.Parallel()

	u := stationaryUser(0, 0, 5)
	u.CoMRate = geom.PolarCoM{GroundRange: 50}
	c := Constants{WaterRate: 10, AirResistance: 0, Gravity: Gravity}

	sol := CalculateAim(u, c)
	require.False(t, sol.Reachable)
}

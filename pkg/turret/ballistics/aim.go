// Package ballistics computes firing solutions for tracked users and scores
// them for target selection.
package ballistics

import (
	"github.com/chewxy/math32"

	turretmath "github.com/foxis/turretd/pkg/core/math"
	"github.com/foxis/turretd/pkg/turret/geom"
)

// Gravity is the constant used throughout the aim solve, in m/s^2.
const Gravity float32 = 9.81

// Constants bundles the physical parameters the aimer needs: muzzle speed,
// horizontal drag, and gravity (exposed mainly so tests can perturb it).
type Constants struct {
	WaterRate    float32 // muzzle speed, m/s
	AirResistance float32 // horizontal deceleration, m/s^2
	Gravity      float32
}

// DefaultConstants returns Constants with the standard gravity and no drag,
// leaving only WaterRate to be set by the caller.
func DefaultConstants(waterRate float32) Constants {
	return Constants{WaterRate: waterRate, AirResistance: 0, Gravity: Gravity}
}

// Solution is the aimer's output: either a reachable GunPosition or the
// explicit Unreachable sentinel. Callers must check Reachable before using
// Aim; this avoids the ambient-NaN sentinel style of older variants (see
// design notes).
type Solution struct {
	Aim        geom.GunPosition
	Reachable  bool
	TimeOfFlight float32
}

// CalculateAim solves for the firing angles that intercept user, assuming
// the user's polar COM evolves at its current instantaneous rate.
//
// Derivation: with z(t) = z0 + zdot*t and y(t) = y0 + ydot*t, and the water
// leaving at speed v and pitch theta with z(t) = v*cos(theta)*t - a/2*t^2
// and y(t) = v*sin(theta)*t - g/2*t^2, eliminating theta via sin^2+cos^2=1
// yields a quartic in t: A t^4 + B t^3 + C t^2 + D t + E = 0.
func CalculateAim(u geom.TrackedUser, c Constants) Solution {
	z0, y0 := u.CoM.GroundRange, u.CoM.Height
	zdot, ydot := u.CoMRate.GroundRange, u.CoMRate.Height
	a, g, v := c.AirResistance, c.Gravity, c.WaterRate

	if y0*y0+z0*z0 == 0 {
		return Solution{Aim: geom.GunPosition{Yaw: u.CoM.Yaw, Pitch: 0}, Reachable: true}
	}

	A := (a*a + g*g) / 4
	B := a*zdot + g*ydot
	C := a*z0 + zdot*zdot + g*y0 + ydot*ydot - v*v
	D := 2*z0*zdot + 2*y0*ydot
	E := z0*z0 + y0*y0

	t, ok := turretmath.Quartic(A, B, C, D, E)
	if !ok || t <= 0 {
		return Solution{Reachable: false}
	}

	yaw := u.CoM.Yaw + u.CoMRate.Yaw*t
	sinTheta := (y0 + ydot*t + g*t*t/2) / (v * t)
	sinTheta = turretmath.Clamp(sinTheta, -1, 1)
	pitch := math32.Asin(sinTheta)

	return Solution{
		Aim:          geom.GunPosition{Yaw: yaw, Pitch: pitch},
		Reachable:    true,
		TimeOfFlight: t,
	}
}

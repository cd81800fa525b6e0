package geom

import "github.com/chewxy/math32"

// PolarCoM is a user's center-of-mass in the camera frame after the camera
// offset has been applied: yaw around the vertical axis, height above the
// camera, and ground range (horizontal distance).
type PolarCoM struct {
	Yaw         float32 // radians, atan2(x, z)
	Height      float32 // metres, y
	GroundRange float32 // metres, sqrt(x^2+z^2); always >= 0
}

// CartesianToPolar converts a camera-frame cartesian point (already offset
// and in metres) into a PolarCoM.
func CartesianToPolar(p Vector3) PolarCoM {
	return PolarCoM{
		Yaw:         math32.Atan2(p.X, p.Z),
		Height:      p.Y,
		GroundRange: math32.Hypot(p.X, p.Z),
	}
}

// Cartesian reconstructs the camera-frame point this polar coordinate
// represents.
func (p PolarCoM) Cartesian() Vector3 {
	return Vector3{
		X: p.GroundRange * math32.Sin(p.Yaw),
		Y: p.Height,
		Z: p.GroundRange * math32.Cos(p.Yaw),
	}
}

// Sub computes a component-wise difference, used to build rate-of-change
// estimates; it is not itself a valid PolarCoM (GroundRange may be negative).
func (p PolarCoM) Sub(o PolarCoM) PolarCoM {
	return PolarCoM{
		Yaw:         p.Yaw - o.Yaw,
		Height:      p.Height - o.Height,
		GroundRange: p.GroundRange - o.GroundRange,
	}
}

func (p PolarCoM) Scale(s float32) PolarCoM {
	return PolarCoM{p.Yaw * s, p.Height * s, p.GroundRange * s}
}

func (p PolarCoM) Add(o PolarCoM) PolarCoM {
	return PolarCoM{p.Yaw + o.Yaw, p.Height + o.Height, p.GroundRange + o.GroundRange}
}

// Project forward-projects this COM by dt seconds at the given rate,
// kinematically (no turret-motion compensation).
func (p PolarCoM) Project(rate PolarCoM, dt float32) PolarCoM {
	return p.Add(rate.Scale(dt))
}

// GunPosition is the turret's commanded aim: yaw relative to the camera's
// forward axis, and pitch above horizontal.
type GunPosition struct {
	Yaw   float32
	Pitch float32
}

// Package geom holds the turret's coordinate types: cartesian and polar
// center-of-mass representations and the clock abstraction they are
// timestamped against.
package geom

import "github.com/chewxy/math32"

// Vector3 is a three-component cartesian vector in metres, camera frame.
type Vector3 struct {
	X, Y, Z float32
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector3) Mul(o Vector3) Vector3 {
	return Vector3{v.X * o.X, v.Y * o.Y, v.Z * o.Z}
}

func (v Vector3) Div(o Vector3) Vector3 {
	return Vector3{v.X / o.X, v.Y / o.Y, v.Z / o.Z}
}

// Len returns the Euclidean length of the vector.
func (v Vector3) Len() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// FromCartesianMM converts a raw camera reading in millimetres to a Vector3
// in metres.
func FromCartesianMM(x, y, z float32) Vector3 {
	return Vector3{x / 1000, y / 1000, z / 1000}
}

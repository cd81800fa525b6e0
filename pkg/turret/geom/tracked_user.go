package geom

import "time"

// TrackedUser is a single frame's worth of information about one tracked
// skeleton: its id, the system-clock timestamp it was observed at, its
// polar center-of-mass, and a smoothed estimate of that COM's rate of
// change per second. A TrackedUser is never mutated in place; a fresh one
// is built on every frame.
type TrackedUser struct {
	ID        string
	Timestamp time.Time
	CoM       PolarCoM
	CoMRate   PolarCoM
}

// Project forward- or backward-projects the user's COM by the interval
// between u.Timestamp and t, using its instantaneous rate. It does not
// compensate for the observer's own motion; see the controller's dynamic
// projection for that.
func (u TrackedUser) Project(t time.Time) TrackedUser {
	dt := float32(t.Sub(u.Timestamp).Seconds())
	return TrackedUser{
		ID:        u.ID,
		Timestamp: t,
		CoM:       u.CoM.Project(u.CoMRate, dt),
		CoMRate:   u.CoMRate,
	}
}

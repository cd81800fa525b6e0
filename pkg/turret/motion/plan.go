// Package motion holds the shared yaw/pitch trajectory data model: a single
// planned segment and the ordered plan built from them. Both the planner
// (which writes it) and the controller (which advances and dispatches it)
// depend only on this package, not on each other.
package motion

import "time"

// LargeDuration stands in for the source's "LARGE" sentinel: a duration so
// far beyond any real segment that it is unambiguously "runs until
// replaced". Used only for the plan's terminal search segment.
const LargeDuration = 100 * 365 * 24 * time.Hour

// LargeTime is the "not yet started" sentinel for a forecast segment's
// StartTime, mirroring the source's start_time == LARGE convention.
var LargeTime = time.Unix(1<<62/int64(time.Second), 0)

// BeginningOfTime is the "from the beginning of time" sentinel used only by
// the plan's synthetic first history segment (start_time == 0 in the
// source). It is the zero time.Time, which compares before any real
// timestamp a clock will ever produce.
var BeginningOfTime = time.Time{}

// SingleMovement is one segment of the yaw/pitch trajectory.
type SingleMovement struct {
	StartTime   time.Time
	Duration    time.Duration
	YawRate     float32 // rad/s
	EndingPitch float32 // rad
}

// EndTime returns StartTime+Duration, or LargeTime itself if StartTime is
// the LargeTime/not-yet-started sentinel.
func (m SingleMovement) EndTime() time.Time {
	if m.StartTime.Equal(LargeTime) {
		return LargeTime
	}
	return m.StartTime.Add(m.Duration)
}

// Contains reports whether t falls within [StartTime, StartTime+Duration).
func (m SingleMovement) Contains(t time.Time) bool {
	if m.StartTime.Equal(LargeTime) {
		return false
	}
	if t.Before(m.StartTime) {
		return false
	}
	return t.Before(m.EndTime())
}

// Plan is an ordered, logically infinite sequence of movements, indexed by
// Current, which always points at the segment containing "now". Entries
// before Current are completed history; Current is in progress; entries
// after are forecast, and the final entry is always a search segment.
type Plan struct {
	Segments []SingleMovement
	Current  int
}

// NewIdlePlan builds the bootstrap plan: a single completed history segment
// starting at the beginning of time, immediately followed (after the first
// Advance) by a search segment. Current points at the history segment so
// the first Advance() promotes the search segment into place.
func NewIdlePlan(searchYawVelocity float32) Plan {
	return Plan{
		Segments: []SingleMovement{
			{StartTime: BeginningOfTime, Duration: 0, YawRate: 0, EndingPitch: 0},
			SearchSegment(1, searchYawVelocity),
		},
		Current: 0,
	}
}

// SearchSegment builds the plan's mandatory terminal segment: an
// arbitrarily long slew at the fixed search rate.
func SearchSegment(sign float32, searchYawVelocity float32) SingleMovement {
	if sign < 0 {
		searchYawVelocity = -searchYawVelocity
	}
	return SingleMovement{
		StartTime: LargeTime,
		Duration:  LargeDuration,
		YawRate:   searchYawVelocity,
	}
}

// CurrentMovement returns the segment the cursor points at.
func (p *Plan) CurrentMovement() SingleMovement {
	return p.Segments[p.Current]
}

// Replan erases every forecast segment after the cursor and appends the
// planner's freshly solved future movements, followed by a fresh search
// segment. It holds no lock itself; callers serialize access.
func (p *Plan) Replan(future []SingleMovement, searchYawVelocity float32) {
	p.Segments = append(p.Segments[:p.Current+1:p.Current+1], future...)
	sign := float32(1)
	if len(future) > 0 && future[len(future)-1].YawRate < 0 {
		sign = -1
	} else if len(future) == 0 && p.Segments[p.Current].YawRate < 0 {
		sign = -1
	}
	p.Segments = append(p.Segments, SearchSegment(sign, searchYawVelocity))
}

// Advance stamps the current segment's actual duration, moves the cursor
// to the next segment, and stamps that segment's StartTime to now. It
// returns the promoted segment. The plan must always have at least one
// segment after the cursor (the search segment guarantees this).
func (p *Plan) Advance(now time.Time) SingleMovement {
	prev := &p.Segments[p.Current]
	if !prev.StartTime.Equal(BeginningOfTime) || p.Current > 0 {
		prev.Duration = now.Sub(prev.StartTime)
	}
	if p.Current+1 >= len(p.Segments) {
		// Defensive: the search segment should make this unreachable, but
		// keep the plan well-formed (repeat the terminal segment) rather
		// than panic if a caller ever empties it.
		p.Segments = append(p.Segments, p.Segments[p.Current])
	}
	p.Current++
	p.Segments[p.Current].StartTime = now
	return p.Segments[p.Current]
}

// EndsWithSearchSegment reports the plan invariant that the final entry is
// always exactly one search segment. A search segment is recognised by its
// LargeDuration, whether or not Advance has already stamped its StartTime.
func (p Plan) EndsWithSearchSegment() bool {
	if len(p.Segments) == 0 {
		return false
	}
	last := p.Segments[len(p.Segments)-1]
	return last.Duration == LargeDuration
}

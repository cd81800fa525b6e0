// Package controller owns the motion plan: it reprojects tracked users
// compensating for the turret's own past motion, runs the planner loop,
// and dispatches the current movement to the yaw and pitch steppers.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foxis/turretd/pkg/turret/ballistics"
	"github.com/foxis/turretd/pkg/turret/geom"
	"github.com/foxis/turretd/pkg/turret/motion"
	"github.com/foxis/turretd/pkg/turret/planner"
	"github.com/foxis/turretd/pkg/turret/tracker"
)

// YawStepper is the rate-controlled yaw axis: ω > 0 slews toward
// increasing yaw, ω == 0 stops and sleeps the driver.
type YawStepper interface {
	SetVelocity(omega float32) error
}

// PitchStepper is the position-controlled pitch axis: moves to angle over
// duration.
type PitchStepper interface {
	SetPosition(angle float32, duration time.Duration) error
}

// Clock abstracts time.Now for tests.
type Clock interface {
	Now() time.Time
}

type steadyClock struct{}

func (steadyClock) Now() time.Time { return time.Now() }

// Config bundles the controller's tunables not already owned by the
// planner.
type Config struct {
	SearchYawVelocity float32
}

// Controller owns the motion plan and the planner loop.
type Controller struct {
	mu   sync.Mutex
	plan motion.Plan

	cfg       Config
	planner   *planner.Planner
	table     *tracker.Table
	constants ballistics.Constants
	scoring   ballistics.ScoringParams
	yaw       YawStepper
	pitch     PitchStepper
	clock     Clock
	log       zerolog.Logger
}

// New builds a Controller with a fresh idle plan.
func New(cfg Config, p *planner.Planner, table *tracker.Table, constants ballistics.Constants, scoring ballistics.ScoringParams, yaw YawStepper, pitch PitchStepper, log zerolog.Logger, clock Clock) *Controller {
	if clock == nil {
		clock = steadyClock{}
	}
	return &Controller{
		plan:      motion.NewIdlePlan(cfg.SearchYawVelocity),
		cfg:       cfg,
		planner:   p,
		table:     table,
		constants: constants,
		scoring:   scoring,
		yaw:       yaw,
		pitch:     pitch,
		clock:     clock,
		log:       log,
	}
}

// ProjectDynamic implements tracker.Projector: it reprojects u to target,
// compensating for the turret's own yaw motion between u.Timestamp and
// target, per the controller's ownership of the motion plan.
func (c *Controller) ProjectDynamic(u geom.TrackedUser, target time.Time) geom.TrackedUser {
	c.mu.Lock()
	segs := append([]motion.SingleMovement(nil), c.plan.Segments...)
	c.mu.Unlock()

	deltaYaw := sumYawBetween(segs, u.Timestamp, target)
	projected := u.Project(target)
	if target.After(u.Timestamp) {
		projected.CoM.Yaw -= deltaYaw
	} else {
		projected.CoM.Yaw += deltaYaw
	}
	return projected
}

// Run executes the planner loop until ctx is cancelled. It dispatches the
// bootstrap idle plan once, then alternates between waiting for a fresh
// detected-user frame (triggering a replan) and waiting out the current
// segment's duration (triggering a bare cursor advance with no replan).
func (c *Controller) Run(ctx context.Context) {
	c.mu.Lock()
	c.advanceLocked()
	c.mu.Unlock()

	var lastSeen uint64
	for {
		c.mu.Lock()
		deadline := c.plan.CurrentMovement().EndTime()
		c.mu.Unlock()

		waitCtx := ctx
		var cancel context.CancelFunc
		if !deadline.Equal(motion.LargeTime) {
			waitCtx, cancel = context.WithDeadline(ctx, deadline)
		}
		users, seen, ok := c.table.WaitDetectedFrame(waitCtx, lastSeen)
		if cancel != nil {
			cancel()
		}
		if !ok {
			if ctx.Err() != nil {
				return
			}
			// Segment-end timeout: advance and keep driving the existing
			// plan without recomputing it.
			c.mu.Lock()
			c.advanceLocked()
			c.mu.Unlock()
			continue
		}
		lastSeen = seen

		target, _, found := ballistics.ChooseTarget(users, c.constants, c.scoring)
		if !found {
			continue
		}

		c.mu.Lock()
		current := c.plan.CurrentMovement()
		c.mu.Unlock()

		future, feasible := c.planner.CalculateFutureMovements(target, current, c.clock.Now())
		if !feasible {
			c.log.Warn().Str("user", target.ID).Msg("planner horizon infeasible, retaining existing plan")
			continue
		}

		c.mu.Lock()
		c.plan.Replan(future, c.cfg.SearchYawVelocity)
		c.advanceLocked()
		c.mu.Unlock()
	}
}

// advanceLocked promotes the plan cursor and dispatches the newly current
// segment to both steppers. Callers must hold c.mu.
func (c *Controller) advanceLocked() {
	m := c.plan.Advance(c.clock.Now())
	if err := c.yaw.SetVelocity(m.YawRate); err != nil {
		c.log.Error().Err(err).Msg("yaw stepper set_velocity failed")
	}
	if err := c.pitch.SetPosition(m.EndingPitch, m.Duration); err != nil {
		c.log.Error().Err(err).Msg("pitch stepper set_position failed")
	}
}

// CurrentMovement returns a consistent snapshot of the in-progress
// segment, for diagnostics and tests.
func (c *Controller) CurrentMovement() motion.SingleMovement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan.CurrentMovement()
}

// sumYawBetween sums yaw_rate*overlap across every segment (history,
// current, and forecast) that falls within [min(a,b), max(a,b)).
func sumYawBetween(segs []motion.SingleMovement, a, b time.Time) float32 {
	lo, hi := a, b
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	var total float32
	for _, s := range segs {
		start, end := s.StartTime, s.EndTime()
		if start.Before(lo) {
			start = lo
		}
		if end.After(hi) {
			end = hi
		}
		if end.After(start) {
			total += s.YawRate * float32(end.Sub(start).Seconds())
		}
	}
	return total
}

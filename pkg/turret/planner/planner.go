// Package planner builds and solves the per-aim-period yaw trajectory LP
// and turns its solution into a forecast of motion.SingleMovement segments.
package planner

import (
	"math"
	"time"

	"github.com/foxis/turretd/pkg/turret/ballistics"
	"github.com/foxis/turretd/pkg/turret/geom"
	"github.com/foxis/turretd/pkg/turret/motion"
	"github.com/foxis/turretd/pkg/turret/solver"
)

// Config bundles the planner's tunable physical limits.
type Config struct {
	AimPeriod          time.Duration
	MaxYawVelocity     float32 // rad/s
	MaxYawAcceleration float32 // rad/s^2
	SearchYawVelocity  float32 // rad/s

	// InitialN is the horizon length tried first; GrowthFactor scales it on
	// infeasibility up to MaxN, per the "grow N and rebuild" recovery
	// policy.
	InitialN     int
	GrowthFactor float32
	MaxN         int
}

// Planner holds the physical constants needed to evaluate target aims at
// future times. It is stateless between calls: the spec's "reusable LP
// model" optimisation is left to the solver package's Problem, which a
// caller may cache and hand back in; here we simply rebuild the tableau
// per horizon size, which the solver's conversion step makes cheap enough
// not to matter at turret-control rates.
type Planner struct {
	cfg       Config
	constants ballistics.Constants
}

// New builds a Planner from its physical constants.
func New(cfg Config, constants ballistics.Constants) *Planner {
	return &Planner{cfg: cfg, constants: constants}
}

// CalculateFutureMovements solves for N yaw rates tracking target over the
// next N aim periods, starting from current's yaw rate, growing the
// horizon on infeasibility up to MaxN. It returns false if no horizon up
// to MaxN is feasible; the caller should then leave the existing plan in
// place per the documented infeasibility-recovery policy.
func (p *Planner) CalculateFutureMovements(target geom.TrackedUser, current motion.SingleMovement, now time.Time) ([]motion.SingleMovement, bool) {
	n := p.cfg.InitialN
	if n <= 0 {
		n = 1
	}
	for {
		moves, ok := p.solveHorizon(target, current, now, n)
		if ok {
			return moves, true
		}
		next := int(float32(n) * p.cfg.GrowthFactor)
		if next <= n {
			next = n + 1
		}
		if next > p.cfg.MaxN {
			return nil, false
		}
		n = next
	}
}

// aimAt returns the firing solution for target projected kinematically to
// t. Future horizon targets have no plan segment covering them yet, so
// this is a plain kinematic projection, not the controller's
// motion-compensated one.
func (p *Planner) aimAt(target geom.TrackedUser, t time.Time) ballistics.Solution {
	projected := target.Project(t)
	sol := ballistics.CalculateAim(projected, p.constants)
	if sol.Reachable {
		return sol
	}
	// Best-effort fallback: hold the last known bearing rather than leaving
	// a hole in the horizon. The tracking slack cost will still penalise
	// any segment that can't actually reach this bearing.
	return ballistics.Solution{Aim: geom.GunPosition{Yaw: projected.CoM.Yaw, Pitch: 0}}
}

func (p *Planner) solveHorizon(target geom.TrackedUser, current motion.SingleMovement, now time.Time, n int) ([]motion.SingleMovement, bool) {
	dt := float32(p.cfg.AimPeriod.Seconds())
	maxV := float64(p.cfg.MaxYawVelocity)
	maxAccelStep := float64(p.cfg.MaxYawAcceleration) * float64(dt)

	// Variables: x[0..n) yaw rates, t[0..n) tracking slacks.
	numVars := 2 * n
	xIdx := func(i int) int { return i }
	tIdx := func(i int) int { return n + i }

	varLB := make([]float64, numVars)
	varUB := make([]float64, numVars)
	for i := 0; i < n; i++ {
		varLB[xIdx(i)], varUB[xIdx(i)] = -maxV, maxV
		varLB[tIdx(i)] = 0
		varUB[tIdx(i)] = math.Inf(1)
	}
	// Terminal alignment: t[n-1] = 0.
	varUB[tIdx(n-1)] = 0

	objective := make([]float64, numVars)
	for i := 0; i < n; i++ {
		objective[tIdx(i)] = 1000.0 * float64(i+1)
	}

	yaws := make([]float64, n)
	pitches := make([]float32, n)
	for i := 0; i < n; i++ {
		at := now.Add(p.cfg.AimPeriod * time.Duration(i+1))
		sol := p.aimAt(target, at)
		yaws[i] = float64(sol.Aim.Yaw)
		pitches[i] = sol.Aim.Pitch
	}

	var rows [][]float64
	var rowLB, rowUB []float64
	addRow := func(coeffs map[int]float64, lo, hi float64) {
		row := make([]float64, numVars)
		for col, v := range coeffs {
			row[col] = v
		}
		rows = append(rows, row)
		rowLB = append(rowLB, lo)
		rowUB = append(rowUB, hi)
	}

	// Acceleration between periods, with x[-1] folded into the bound as a
	// constant for i==0.
	prevRate := float64(current.YawRate)
	for i := 0; i < n; i++ {
		if i == 0 {
			addRow(map[int]float64{xIdx(0): 1}, prevRate-maxAccelStep, prevRate+maxAccelStep)
			continue
		}
		addRow(map[int]float64{xIdx(i): 1, xIdx(i - 1): -1}, -maxAccelStep, maxAccelStep)
	}

	// Exit-velocity acceleration constraint against the user's
	// instantaneous yaw rate at the end of the horizon.
	exitRate := float64(target.CoMRate.Yaw)
	addRow(map[int]float64{xIdx(n - 1): 1}, exitRate-maxAccelStep, exitRate+maxAccelStep)

	// Tracking slack: t[i] >= |Delta*sum_{j<=i} x[j] - y_i|.
	for i := 0; i < n; i++ {
		coeffsUp := map[int]float64{tIdx(i): -1}
		coeffsDown := map[int]float64{tIdx(i): 1}
		for j := 0; j <= i; j++ {
			coeffsUp[xIdx(j)] += float64(dt)
			coeffsDown[xIdx(j)] += float64(dt)
		}
		addRow(coeffsUp, math.Inf(-1), yaws[i])
		addRow(coeffsDown, yaws[i], math.Inf(1))
	}

	problem := &solver.Problem{
		Objective: objective,
		A:         rows,
		VarLB:     varLB,
		VarUB:     varUB,
		RowLB:     rowLB,
		RowUB:     rowUB,
	}

	sol, err := solver.Solve(problem)
	if err != nil {
		return nil, false
	}

	moves := make([]motion.SingleMovement, n)
	for i := 0; i < n; i++ {
		moves[i] = motion.SingleMovement{
			StartTime:   target.Timestamp.Add(p.cfg.AimPeriod * time.Duration(i)),
			Duration:    p.cfg.AimPeriod,
			YawRate:     float32(sol.X[xIdx(i)]),
			EndingPitch: pitches[i],
		}
	}
	return moves, true
}

// Package tracker owns the camera session and maintains the shared table
// of currently-visible TrackedUser records, notifying waiters on every
// frame.
package tracker

import (
	"context"
	"sync"

	"github.com/foxis/turretd/pkg/turret/geom"
)

// Table is the live, frame-sequenced user table. The camera callback is
// its only writer; planner and controller goroutines are readers that
// either snapshot it directly or block until it advances past a
// last-seen sequence number.
type Table struct {
	mu       sync.Mutex
	cond     *sync.Cond
	users    []geom.TrackedUser
	frameID  uint64 // global_frame_id: increments on every frame
	detectID uint64 // detected_frame_id: increments only on non-empty frames
}

// NewTable returns an empty table.
func NewTable() *Table {
	t := &Table{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Replace atomically swaps in a new snapshot of users and advances the
// frame counters, then wakes every waiter.
func (t *Table) Replace(users []geom.TrackedUser) {
	t.mu.Lock()
	t.users = users
	t.frameID++
	if len(users) > 0 {
		t.detectID++
	}
	t.mu.Unlock()
	t.cond.Broadcast()
}

// Snapshot returns the current users and the global frame id they were
// observed at.
func (t *Table) Snapshot() ([]geom.TrackedUser, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]geom.TrackedUser, len(t.users))
	copy(out, t.users)
	return out, t.frameID
}

// WaitAnyFrame blocks until the global frame id advances past
// lastSeen, or ctx is done. It returns the fresh snapshot, the global
// frame id, and true, or a nil snapshot and false on cancellation.
func (t *Table) WaitAnyFrame(ctx context.Context, lastSeen uint64) ([]geom.TrackedUser, uint64, bool) {
	return t.wait(ctx, lastSeen, false)
}

// WaitDetectedFrame is WaitAnyFrame restricted to frames that produced a
// non-empty table; both lastSeen and the returned id are detected-frame
// ids.
func (t *Table) WaitDetectedFrame(ctx context.Context, lastSeen uint64) ([]geom.TrackedUser, uint64, bool) {
	return t.wait(ctx, lastSeen, true)
}

func (t *Table) wait(ctx context.Context, lastSeen uint64, detectedOnly bool) ([]geom.TrackedUser, uint64, bool) {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		// Taking the lock orders this wake-up after any waiter's
		// cancellation check, so the broadcast cannot be missed.
		t.mu.Lock()
		close(done)
		t.mu.Unlock()
		t.cond.Broadcast()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		current := t.frameID
		if detectedOnly {
			current = t.detectID
		}
		if current > lastSeen {
			out := make([]geom.TrackedUser, len(t.users))
			copy(out, t.users)
			return out, current, true
		}
		select {
		case <-ctx.Done():
			return nil, 0, false
		default:
		}
		t.cond.Wait()
	}
}

// noiseFloor holds the per-axis velocity magnitudes below which a
// component is considered sensor noise and zeroed, per the tracker's
// smoothing procedure.
type noiseFloor struct {
	Yaw         float32 // rad/s, ~0.75 deg/s
	Height      float32 // m/s
	GroundRange float32 // m/s
}

var defaultNoiseFloor = noiseFloor{
	Yaw:         0.75 * (3.14159265 / 180),
	Height:      0.10,
	GroundRange: 0.05,
}

func applyNoiseFloor(rate geom.PolarCoM, floor noiseFloor) geom.PolarCoM {
	out := rate
	if abs32(out.Yaw) < floor.Yaw {
		out.Yaw = 0
	}
	if abs32(out.Height) < floor.Height {
		out.Height = 0
	}
	if abs32(out.GroundRange) < floor.GroundRange {
		out.GroundRange = 0
	}
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

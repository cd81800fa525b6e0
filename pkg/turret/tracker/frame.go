package tracker

import (
	"encoding/binary"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"github.com/foxis/turretd/pkg/turret/geom"
)

// Skeleton is one user's raw reading for a single frame, as handed to us
// by the depth-camera adapter: a stable per-session id and a cartesian
// center-of-mass in millimetres. A skeleton with RawZ == 0 means the
// tracker has lost that person and is excluded from the table.
type Skeleton struct {
	ID    string
	X, Y  float32
	RawZ  float32
}

// Frame is one callback invocation from the camera adapter.
type Frame struct {
	TimestampTicks int64 // hardware clock domain
	Skeletons      []Skeleton
}

// Projector supplies the dynamic (motion-compensated) reprojection the
// tracker needs to compute smoothed rates across frames. It is
// implemented by the controller, which owns the motion plan that the
// projection walks.
type Projector interface {
	ProjectDynamic(u geom.TrackedUser, target time.Time) geom.TrackedUser
}

// Config bundles the tracker's tunables.
type Config struct {
	CameraOffset    geom.Vector3
	ClockSyncPeriod int // frames between clock re-synchronisation; default 900
	NoiseFloor      noiseFloor
}

// DefaultConfig returns Config with the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		ClockSyncPeriod: 900,
		NoiseFloor:      defaultNoiseFloor,
	}
}

// Tracker owns the user table and the clock synchronisation state; the
// camera session is passed in to CaptureLoop rather than held here. OnFrame
// is its sole entry point, invoked on the camera adapter's callback thread.
type Tracker struct {
	cfg       Config
	table     *Table
	projector Projector
	log       zerolog.Logger

	clock Clock

	framesSinceSync int
	tickEpoch       time.Time // system time corresponding to hardware tick 0
	haveOffset      bool

	avgGenerationTime time.Duration
}

// Clock abstracts the wall-clock reads the tracker needs, so tests can
// supply a fake one.
type Clock interface {
	Now() time.Time
}

type steadyClock struct{}

func (steadyClock) Now() time.Time { return time.Now() }

// New builds a Tracker. clock defaults to the real wall clock if nil.
func New(cfg Config, projector Projector, log zerolog.Logger, clock Clock) *Tracker {
	if clock == nil {
		clock = steadyClock{}
	}
	if cfg.ClockSyncPeriod <= 0 {
		cfg.ClockSyncPeriod = 900
	}
	if cfg.NoiseFloor == (noiseFloor{}) {
		cfg.NoiseFloor = defaultNoiseFloor
	}
	return &Tracker{
		cfg:       cfg,
		table:     NewTable(),
		projector: projector,
		log:       log,
		clock:     clock,
	}
}

// Table exposes the shared user table for readers (planner/controller).
func (t *Tracker) Table() *Table { return t.table }

// OnFrame implements the frame callback procedure: clock sync,
// generation-time smoothing, per-skeleton polar conversion and rate
// smoothing, and publishing the new table.
func (t *Tracker) OnFrame(f Frame) {
	now := t.clock.Now()

	if !t.haveOffset || t.framesSinceSync >= t.cfg.ClockSyncPeriod {
		t.resync(f.TimestampTicks, now)
	}
	t.framesSinceSync++

	frameTime := t.tickEpoch.Add(time.Duration(f.TimestampTicks))
	if t.avgGenerationTime == 0 {
		t.avgGenerationTime = now.Sub(frameTime)
	} else {
		t.avgGenerationTime = time.Duration(0.95*float64(t.avgGenerationTime) + 0.05*float64(now.Sub(frameTime)))
	}

	prevUsers, _ := t.table.Snapshot()
	prevByID := make(map[string]geom.TrackedUser, len(prevUsers))
	for _, u := range prevUsers {
		prevByID[u.ID] = u
	}

	users := make([]geom.TrackedUser, 0, len(f.Skeletons))
	for _, s := range f.Skeletons {
		if s.RawZ == 0 {
			continue
		}
		cart := geom.FromCartesianMM(s.X, s.Y, s.RawZ).Add(t.cfg.CameraOffset)
		com := geom.CartesianToPolar(cart)

		u := geom.TrackedUser{ID: s.ID, Timestamp: frameTime, CoM: com}

		if prev, ok := prevByID[s.ID]; ok && t.projector != nil {
			dt := float32(frameTime.Sub(prev.Timestamp).Seconds())
			if dt > 0 {
				reprojected := t.projector.ProjectDynamic(u, prev.Timestamp)
				instant := reprojected.CoM.Sub(prev.CoM).Scale(1 / dt)
				rate := prev.CoMRate.Scale(0.5).Add(instant.Scale(0.5))
				u.CoMRate = applyNoiseFloor(rate, t.cfg.NoiseFloor)
			} else {
				u.CoMRate = prev.CoMRate
			}
		}

		users = append(users, u)
	}

	t.table.Replace(users)

	if e := t.log.Debug(); e.Enabled() {
		e.Str("frame", frameTag(f.TimestampTicks)).Int("users", len(users)).
			Dur("gen_time", t.avgGenerationTime).Msg("frame processed")
	}
}

// frameTag renders a frame's hardware tick as a short base58 string, for
// compact correlation in log output.
func frameTag(tick int64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(tick))
	return base58.Encode(buf[:])
}

// resync re-establishes the hardware-tick-to-system-clock offset by
// snapshotting both clocks against the current frame: tickEpoch is the
// system time that would correspond to tick 0 under the current drift.
func (t *Tracker) resync(tick int64, now time.Time) {
	t.tickEpoch = now.Add(-time.Duration(tick))
	t.haveOffset = true
	t.framesSinceSync = 0
}

package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/foxis/turretd/pkg/turret/geom"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type identityProjector struct{}

func (identityProjector) ProjectDynamic(u geom.TrackedUser, target time.Time) geom.TrackedUser {
	return u.Project(target)
}

func TestTracker_OnFrame_LostSkeletonExcluded(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := New(DefaultConfig(), identityProjector{}, zerolog.Nop(), clock)

	tr.OnFrame(Frame{TimestampTicks: 0, Skeletons: []Skeleton{
		{ID: "a", X: 0, Y: 0, RawZ: 0},
		{ID: "b", X: 100, Y: 0, RawZ: 2000},
	}})

	users, frameID := tr.Table().Snapshot()
	require.Len(t, users, 1)
	require.Equal(t, "b", users[0].ID)
	require.Equal(t, uint64(1), frameID)
}

func TestTracker_OnFrame_DetectedFrameWaitWakesOnNonEmpty(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := New(DefaultConfig(), identityProjector{}, zerolog.Nop(), clock)

	done := make(chan struct{})
	go func() {
		ctx := context.Background()
		_, _, ok := tr.Table().WaitDetectedFrame(ctx, 0)
		require.True(t, ok)
		close(done)
	}()

	tr.OnFrame(Frame{TimestampTicks: 0, Skeletons: nil})
	select {
	case <-done:
		t.Fatal("waiter woke on an empty frame")
	case <-time.After(20 * time.Millisecond):
	}

	tr.OnFrame(Frame{TimestampTicks: int64(time.Millisecond * 33), Skeletons: []Skeleton{
		{ID: "a", X: 0, Y: 0, RawZ: 3000},
	}})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter did not wake on a detected frame")
	}
}

func TestTracker_OnFrame_SmoothsRateFromPreviousSighting(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(100, 0)}
	tr := New(DefaultConfig(), identityProjector{}, zerolog.Nop(), clock)

	// First sighting: no previous record, rate stays zero.
	tr.OnFrame(Frame{TimestampTicks: 0, Skeletons: []Skeleton{
		{ID: "a", X: 0, Y: 0, RawZ: 2000},
	}})

	// Second sighting 100ms later, moved 1m closer: rate should be nonzero
	// and well above the noise floor.
	clock.now = clock.now.Add(100 * time.Millisecond)
	tr.OnFrame(Frame{TimestampTicks: int64(100 * time.Millisecond), Skeletons: []Skeleton{
		{ID: "a", X: 0, Y: 0, RawZ: 1000},
	}})

	users, _ := tr.Table().Snapshot()
	require.Len(t, users, 1)
	require.Less(t, users[0].CoMRate.GroundRange, float32(0))
}

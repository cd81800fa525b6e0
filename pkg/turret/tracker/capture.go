package tracker

import (
	"context"
	"errors"
)

// CaptureLoop runs on the camera adapter's own goroutine: it pulls depth
// frames from cam, extracts skeletons through detector, and feeds each
// result into t.OnFrame. It returns when ctx is cancelled or ReadDepth
// fails permanently.
func (t *Tracker) CaptureLoop(ctx context.Context, cam CameraSession, detector SkeletonDetector) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		depth, tick, err := cam.ReadDepth()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			t.log.Error().Err(err).Msg("depth frame read failed")
			return err
		}

		skeletons, err := detector.Detect(depth)
		depth.Close()
		if err != nil {
			t.log.Error().Err(err).Msg("skeleton detection failed")
			continue
		}

		t.OnFrame(Frame{TimestampTicks: tick, Skeletons: skeletons})
	}
}

package tracker

import (
	"fmt"

	"gocv.io/x/gocv"
)

// CameraSession owns the depth-camera device and yields raw depth/amplitude
// frames plus the device's reported field of view and range, mirroring the
// depth-camera adapter's consumed surface (open device, open depth stream,
// obtain h_fov/v_fov/max_depth/fps).
type CameraSession interface {
	// ReadDepth blocks for the next depth frame along with its hardware
	// timestamp tick. The units of the frame's values depend on the
	// implementation; GoCVCameraSession returns the device's raw values.
	ReadDepth() (depthMM gocv.Mat, tick int64, err error)
	HFOV() float32
	VFOV() float32
	MaxDepth() float32
	FPS() float32
	Close() error
}

// GoCVCameraSession opens a depth-capable V4L2/RealSense-style device
// through gocv's VideoCapture. Depth decoding (raw sensor units to
// millimetres) is device-specific and left to the caller's
// SkeletonDetector, which receives the raw Mat.
type GoCVCameraSession struct {
	cap                       *gocv.VideoCapture
	hfov, vfov, maxDepth, fps float32
}

// CameraConfig bundles the device-open parameters the adapter needs.
type CameraConfig struct {
	DeviceIndex       int
	HFOV, VFOV        float32 // radians
	MaxDepth          float32 // metres
	FPS               float32
}

// OpenGoCVCamera opens the configured capture device. It returns a
// configuration error (not a driver error) if the device cannot be
// opened, since this always happens at construction time.
func OpenGoCVCamera(cfg CameraConfig) (*GoCVCameraSession, error) {
	cap, err := gocv.OpenVideoCapture(cfg.DeviceIndex)
	if err != nil {
		return nil, fmt.Errorf("tracker: open camera device %d: %w", cfg.DeviceIndex, err)
	}
	return &GoCVCameraSession{
		cap:      cap,
		hfov:     cfg.HFOV,
		vfov:     cfg.VFOV,
		maxDepth: cfg.MaxDepth,
		fps:      cfg.FPS,
	}, nil
}

func (c *GoCVCameraSession) ReadDepth() (gocv.Mat, int64, error) {
	mat := gocv.NewMat()
	if ok := c.cap.Read(&mat); !ok {
		mat.Close()
		return gocv.Mat{}, 0, fmt.Errorf("tracker: depth frame read failed")
	}
	tick := int64(c.cap.Get(gocv.VideoCapturePosMsec)) * 1_000_000 // ms -> ns
	return mat, tick, nil
}

func (c *GoCVCameraSession) HFOV() float32     { return c.hfov }
func (c *GoCVCameraSession) VFOV() float32     { return c.vfov }
func (c *GoCVCameraSession) MaxDepth() float32 { return c.maxDepth }
func (c *GoCVCameraSession) FPS() float32      { return c.fps }

func (c *GoCVCameraSession) Close() error { return c.cap.Close() }

// Command turret runs the self-aiming water-gun turret daemon: it reads
// depth-camera skeleton frames and aims a yaw/pitch stepper pair at the
// best-scoring tracked user. It opens the solenoid valve pin and keeps the
// valve powered off; nothing in the aim loop powers it on.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/foxis/turretd/internal/calibration"
	"github.com/foxis/turretd/internal/config"
	"github.com/foxis/turretd/pkg/logger"
	"github.com/foxis/turretd/pkg/turret/ballistics"
	"github.com/foxis/turretd/pkg/turret/controller"
	"github.com/foxis/turretd/pkg/turret/geom"
	"github.com/foxis/turretd/pkg/turret/planner"
	"github.com/foxis/turretd/pkg/turret/tracker"
	"github.com/foxis/turretd/x/devices"
	"github.com/foxis/turretd/x/devices/stepper"
)

// projectorShim lets the tracker be constructed before the controller it
// depends on exists: the tracker only calls ProjectDynamic once a second
// frame arrives for a given skeleton, which never happens before main
// wires the real controller in (CaptureLoop starts only after that).
type projectorShim struct {
	c *controller.Controller
}

func (s *projectorShim) ProjectDynamic(u geom.TrackedUser, target time.Time) geom.TrackedUser {
	return s.c.ProjectDynamic(u, target)
}

func main() {
	configPath := flag.String("config", "", "path to turret.yaml (defaults are used if unset)")
	homeOnStart := flag.Bool("home", false, "run pitch homing before entering the aim loop")
	flag.Parse()

	log := logger.Named("turret")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pwmDevice := devices.NewPWMDevice()
	if err := pwmDevice.Configure(1000); err != nil {
		log.Fatal().Err(err).Msg("configure PWM device")
	}

	openPin := func(n int) (devices.Pin, error) { return devices.NewPin(n) }

	yawStepper, err := stepper.NewYaw(stepper.YawConfig{
		Pins: stepper.DriverPins{
			Step: cfg.Yaw.Step, Dir: cfg.Yaw.Dir,
			MS0: cfg.Yaw.MS0, MS1: cfg.Yaw.MS1, MS2: cfg.Yaw.MS2,
			Sleep: cfg.Yaw.Sleep,
		},
		StepSize:    cfg.StepSize,
		MinStepFreq: cfg.MinStepFreq,
		MaxVelocity: cfg.MaxYawVelocity,
	}, pwmDevice, openPin)
	if err != nil {
		log.Fatal().Err(err).Msg("construct yaw stepper")
	}

	pitchStepper, err := stepper.NewPitch(stepper.PitchConfig{
		Pins: stepper.DriverPins{
			Step: cfg.Pitch.Step, Dir: cfg.Pitch.Dir,
			MS0: cfg.Pitch.MS0, MS1: cfg.Pitch.MS1, MS2: cfg.Pitch.MS2,
			Sleep: cfg.Pitch.Sleep,
		},
		StepSize:      cfg.StepSize,
		MinStepFreq:   cfg.MinStepFreq,
		MaxVelocity:   cfg.MaxYawVelocity,
		MinStepPeriod: cfg.MinStepPeriod,
		HomingPin:     cfg.Pitch.Position,
	}, openPin)
	if err != nil {
		log.Fatal().Err(err).Msg("construct pitch stepper")
	}
	defer pitchStepper.Close()

	if *homeOnStart {
		if cfg.Pitch.Position < 0 {
			log.Fatal().Msg("-home requested but pitch.position homing pin is not configured")
		}
		if err := calibration.Run(pitchStepper, 0, log); err != nil {
			log.Fatal().Err(err).Msg("pitch homing")
		}
	}

	valvePin, err := devices.NewPin(cfg.ValvePin)
	if err != nil {
		log.Fatal().Err(err).Msg("open valve pin")
	}
	valve := stepper.NewValve(valvePin)
	valve.PowerOff()

	constants := ballistics.DefaultConstants(cfg.WaterRate)
	constants.AirResistance = cfg.AirResistance
	scoring := ballistics.ScoringParams{
		HFOV:     cfg.CameraHFOVDeg * (3.14159265 / 180),
		MaxDepth: cfg.CameraMaxDepth,
	}

	shim := &projectorShim{}
	trk := tracker.New(tracker.Config{
		CameraOffset:    geom.Vector3{X: cfg.CameraOffsetX, Y: cfg.CameraOffsetY, Z: cfg.CameraOffsetZ},
		ClockSyncPeriod: cfg.ClockSyncPeriod,
	}, shim, logger.Named("tracker"), nil)

	p := planner.New(planner.Config{
		AimPeriod:          cfg.AimPeriod,
		MaxYawVelocity:     cfg.MaxYawVelocity,
		MaxYawAcceleration: cfg.MaxYawAcceleration,
		SearchYawVelocity:  cfg.SearchYawVelocity,
		InitialN:           cfg.HorizonInitialN,
		GrowthFactor:       cfg.HorizonGrowth,
		MaxN:               cfg.HorizonMaxN,
	}, constants)

	ctrl := controller.New(controller.Config{
		SearchYawVelocity: cfg.SearchYawVelocity,
	}, p, trk.Table(), constants, scoring, yawStepper, pitchStepper, logger.Named("controller"), nil)
	shim.c = ctrl

	cam, err := tracker.OpenGoCVCamera(tracker.CameraConfig{
		DeviceIndex: cfg.CameraDeviceIdx,
		HFOV:        cfg.CameraHFOVDeg * (3.14159265 / 180),
		VFOV:        cfg.CameraVFOVDeg * (3.14159265 / 180),
		MaxDepth:    cfg.CameraMaxDepth,
		FPS:         cfg.CameraFPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open depth camera")
	}
	defer cam.Close()

	var detector tracker.SkeletonDetector
	if cfg.SkeletonModelPath != "" {
		modelData, err := os.ReadFile(cfg.SkeletonModelPath)
		if err != nil {
			log.Fatal().Err(err).Msg("read skeleton model")
		}
		detector, err = tracker.NewTFLiteSkeletonDetector(modelData, 256, 256, 2)
		if err != nil {
			log.Fatal().Err(err).Msg("load skeleton model")
		}
	} else {
		log.Fatal().Msg("no skeleton_model_path configured and no external tracker adapter wired")
	}
	defer detector.Close()

	go trk.CaptureLoop(ctx, cam, detector)

	log.Info().Msg("turret daemon starting")
	ctrl.Run(ctx)
	log.Info().Msg("turret daemon stopped")

	valve.PowerOff()
	if err := yawStepper.SetVelocity(0); err != nil {
		log.Error().Err(err).Msg("stop yaw stepper")
	}
	fmt.Fprintln(os.Stderr, "shutdown complete")
}

// Package config loads and validates the turret's runtime configuration:
// physical constants, camera geometry, and per-stepper pin assignments.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PinSet is one DRV8825-style driver's pin assignment. Conventions:
// -1 = hard-wired low, -2 = hard-wired high, >= 0 = a real pin.
type PinSet struct {
	Step  int `yaml:"step"`
	Dir   int `yaml:"dir"`
	MS0   int `yaml:"ms0"`
	MS1   int `yaml:"ms1"`
	MS2   int `yaml:"ms2"`
	Sleep int `yaml:"sleep"`

	// Position is only meaningful for the pitch driver: an optional
	// homing-switch input pin, -1 if none is wired.
	Position int `yaml:"position"`
}

// Config is the turret daemon's full configuration.
type Config struct {
	// Ballistics constants.
	WaterRate     float32 `yaml:"water_rate"`
	AirResistance float32 `yaml:"air_resistance"`

	// Motion planner limits.
	MaxYawVelocity     float32       `yaml:"max_yaw_velocity"`
	MaxYawAcceleration float32       `yaml:"max_yaw_acceleration"`
	AimPeriod          time.Duration `yaml:"aim_period"`
	SearchYawVelocity  float32       `yaml:"search_yaw_velocity"`
	HorizonInitialN    int           `yaml:"horizon_initial_n"`
	HorizonGrowth      float32       `yaml:"horizon_growth"`
	HorizonMaxN        int           `yaml:"horizon_max_n"`

	// Camera geometry.
	CameraOffsetX   float32 `yaml:"camera_offset_x"`
	CameraOffsetY   float32 `yaml:"camera_offset_y"`
	CameraOffsetZ   float32 `yaml:"camera_offset_z"`
	CameraDeviceIdx int     `yaml:"camera_device_index"`
	CameraHFOVDeg   float32 `yaml:"camera_hfov_deg"`
	CameraVFOVDeg   float32 `yaml:"camera_vfov_deg"`
	CameraMaxDepth  float32 `yaml:"camera_max_depth"`
	CameraFPS       float32 `yaml:"camera_fps"`
	ClockSyncPeriod int     `yaml:"clock_sync_period"`

	// Stepper hardware.
	Yaw   PinSet `yaml:"yaw"`
	Pitch PinSet `yaml:"pitch"`

	StepSize      float32       `yaml:"step_size"`
	MinStepFreq   float32       `yaml:"min_step_freq"`
	MinStepPeriod time.Duration `yaml:"min_step_period"`

	// Solenoid pin.
	ValvePin int `yaml:"valve_pin"`

	// Path to the embedded skeleton detector's TFLite model. cmd/turret
	// has no other skeleton source wired, so it exits if this is empty.
	SkeletonModelPath string `yaml:"skeleton_model_path"`
}

// Default returns a Config with conservative defaults; every pin field
// defaults to -1 (hard-wired low / not wired) so a caller must
// deliberately assign real hardware pins.
func Default() Config {
	unwired := PinSet{Step: -1, Dir: -1, MS0: -1, MS1: -1, MS2: -1, Sleep: -1, Position: -1}
	return Config{
		WaterRate:          10,
		AirResistance:      0,
		MaxYawVelocity:     2.0,
		MaxYawAcceleration: 6.0,
		AimPeriod:          100 * time.Millisecond,
		SearchYawVelocity:  0.5,
		HorizonInitialN:    8,
		HorizonGrowth:      2,
		HorizonMaxN:        64,
		CameraDeviceIdx:    0,
		CameraHFOVDeg:      69.4,
		CameraVFOVDeg:      42.5,
		CameraMaxDepth:     6.0,
		CameraFPS:          30,
		ClockSyncPeriod:    900,
		Yaw:                unwired,
		Pitch:              unwired,
		StepSize:           1.8 * (3.14159265 / 180),
		MinStepFreq:        200,
		MinStepPeriod:      500 * time.Microsecond,
		ValvePin:           -1,
	}
}

// Load reads and parses a YAML config file, starting from Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for the errors the spec documents as
// fatal at construction: missing required pins and non-positive physical
// parameters.
func (c *Config) Validate() error {
	if c.Yaw.Step < 0 {
		return fmt.Errorf("config: yaw.step pin is required")
	}
	if c.Yaw.Dir < 0 {
		return fmt.Errorf("config: yaw.dir pin is required")
	}
	if c.Pitch.Step < 0 {
		return fmt.Errorf("config: pitch.step pin is required")
	}
	if c.Pitch.Dir < 0 {
		return fmt.Errorf("config: pitch.dir pin is required")
	}
	if c.ValvePin < 0 {
		return fmt.Errorf("config: valve_pin is required")
	}
	if c.WaterRate <= 0 {
		return fmt.Errorf("config: water_rate must be positive")
	}
	if c.AimPeriod <= 0 {
		return fmt.Errorf("config: aim_period must be positive")
	}
	if c.MaxYawVelocity <= 0 || c.MaxYawAcceleration <= 0 {
		return fmt.Errorf("config: max_yaw_velocity and max_yaw_acceleration must be positive")
	}
	if c.HorizonInitialN <= 0 || c.HorizonMaxN < c.HorizonInitialN {
		return fmt.Errorf("config: horizon_initial_n and horizon_max_n misconfigured")
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_FailsValidationUntilPinsAssigned(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.Error(t, cfg.Validate())

	cfg.Yaw.Step, cfg.Yaw.Dir = 17, 27
	cfg.Pitch.Step, cfg.Pitch.Dir = 22, 23
	cfg.ValvePin = 24
	require.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "turret.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
water_rate: 12.5
yaw:
  step: 17
  dir: 27
  ms0: -1
  ms1: -1
  ms2: -2
  sleep: -2
pitch:
  step: 22
  dir: 23
  ms0: -1
  ms1: -1
  ms2: -2
  sleep: -2
  position: 5
valve_pin: 24
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, float32(12.5), cfg.WaterRate)
	require.Equal(t, 17, cfg.Yaw.Step)
	require.Equal(t, 5, cfg.Pitch.Position)
	// Unset fields retain Default()'s values.
	require.Equal(t, Default().MaxYawVelocity, cfg.MaxYawVelocity)
	require.NoError(t, cfg.Validate())
}

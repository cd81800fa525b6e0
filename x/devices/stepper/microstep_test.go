package stepper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChooseMicrostep_AllLevelsAvailable(t *testing.T) {
	t.Parallel()

	available := availableLevels(nil, nil, nil)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, available)

	// Small omega should favor fine microstepping (high m); large omega
	// should favor coarse (low m).
	fine := chooseMicrostep(0.01, 1000, 0.05, available)
	coarse := chooseMicrostep(0.01, 1000, 50, available)
	require.Greater(t, fine, coarse)
}

// TestChooseMicrostep_SparseSetClipsUpwardNotNearest exercises a hard-wired
// set with an internal gap: the ideal level falls in the gap, and the
// constraint (pulse frequency must not drop below minStepFreq) requires
// rounding up to the next finer available level, not to whichever neighbor
// happens to be numerically closer.
func TestChooseMicrostep_SparseSetClipsUpwardNotNearest(t *testing.T) {
	t.Parallel()

	available := []int{0, 2, 4}
	// stepSize*minStepFreq/absOmega == 8, so ideal == ceil(log2(8)) == 3,
	// which sits in the gap between 2 and 4; nearest-rounding picks 2
	// (equidistant, but visited first), violating the frequency floor.
	got := chooseMicrostep(0.01, 800, 1, available)
	require.Equal(t, 4, got)
}

func TestAvailableLevels_HardWiredLinesRestrictSet(t *testing.T) {
	t.Parallel()

	allLow := false
	levels := availableLevels(&allLow, &allLow, &allLow)
	require.Equal(t, []int{0}, levels)

	allHigh := true
	levels = availableLevels(&allHigh, &allHigh, &allHigh)
	require.Equal(t, []int{5}, levels)
}

func TestResolvePin_HardWiredSentinels(t *testing.T) {
	t.Parallel()

	lowPin, err := ResolvePin(PinHardLow, nil)
	require.NoError(t, err)
	require.False(t, lowPin.Get())

	highPin, err := ResolvePin(PinHardHigh, nil)
	require.NoError(t, err)
	require.True(t, highPin.Get())
}

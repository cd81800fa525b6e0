package stepper

import "github.com/chewxy/math32"

// MaxMicrostepLevel is the highest microstep index a DRV8825 supports:
// 0 = full step ... 5 = 1/32 step.
const MaxMicrostepLevel = 5

// DriverPins is the set of GPIO lines a single DRV8825-style driver
// occupies: step pulse, direction, three microstep-select lines, and
// sleep/enable (active low on the DRV8825). Any of the microstep-select
// pins may be one of the PinHardLow/PinHardHigh sentinels if that line is
// hard-wired on the board rather than controller-driven, which narrows
// the set of microstep levels actually available (see availableLevels).
type DriverPins struct {
	Step, Dir, Sleep int
	MS0, MS1, MS2    int
}

// msLevelBits returns the (ms0, ms1, ms2) line levels for microstep level
// m, per the standard DRV8825 truth table.
func msLevelBits(m int) (bool, bool, bool) {
	switch m {
	case 0:
		return false, false, false
	case 1:
		return true, false, false
	case 2:
		return false, true, false
	case 3:
		return true, true, false
	case 4:
		return false, false, true
	default: // 5: 1/32 step
		return true, true, true
	}
}

// availableLevels reports which microstep levels are actually selectable
// given that some MS lines may be hard-wired: a hard-wired line excludes
// every level whose truth-table bit on that line doesn't match the wired
// level.
func availableLevels(ms0Wired, ms1Wired, ms2Wired *bool) []int {
	var levels []int
	for m := 0; m <= MaxMicrostepLevel; m++ {
		b0, b1, b2 := msLevelBits(m)
		if ms0Wired != nil && *ms0Wired != b0 {
			continue
		}
		if ms1Wired != nil && *ms1Wired != b1 {
			continue
		}
		if ms2Wired != nil && *ms2Wired != b2 {
			continue
		}
		levels = append(levels, m)
	}
	if len(levels) == 0 {
		levels = []int{0}
	}
	return levels
}

// chooseMicrostep picks the smallest m such that
// stepSize*minStepFreq/2^m <= |omega|, i.e. the coarsest microstepping
// that can still keep up with the requested rate, clipped into the
// available set. available is sorted ascending (see availableLevels), so
// clipping means taking the smallest available level that is still >= the
// ideal m: rounding down to a coarser level than required would violate
// the minStepFreq constraint, so a gap in the available set is always
// resolved upward, never to the nearest neighbour.
func chooseMicrostep(stepSize, minStepFreq, omega float32, available []int) int {
	absOmega := math32.Abs(omega)
	if absOmega <= 0 {
		return available[len(available)-1]
	}
	ideal := math32.Log2(stepSize * minStepFreq / absOmega)
	m := int(math32.Ceil(ideal))

	for _, lvl := range available {
		if lvl >= m {
			return lvl
		}
	}
	return available[len(available)-1]
}

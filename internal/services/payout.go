package services

import (
	"math"

	"points-arcade-backend/internal/models"
)

// The evaluators are pure: same stake, selection and outcome always
// produce the same result, and payouts are whole points (floored).

// EvaluateWheel pays 14x on the single blue tile, 2x on red or green.
func EvaluateWheel(stake int64, selection models.WheelColor, outcome models.WheelColor) (bool, int64) {
	if selection != outcome {
		return false, 0
	}

	if outcome == models.WheelColorBlue {
		return true, stake * models.WheelBluePayoutMultiplier
	}
	return true, stake * models.WheelColorPayoutMultiplier
}

// EvaluateCrash wins only when the crash point strictly exceeds the
// target. Equality is a loss. Both values are rounded to 2 decimals
// before the comparison, so sub-cent float noise can never flip the
// outcome.
func EvaluateCrash(stake int64, targetMultiplier, crashPoint float64) (bool, int64) {
	target := roundMultiplier(targetMultiplier)
	crash := roundMultiplier(crashPoint)

	if crash > target {
		return true, int64(math.Floor(float64(stake) * target))
	}
	return false, 0
}

// EvaluateLottery counts matches between picks and the drawn numbers
// and pays from the multiplier table; fewer than 2 matches loses.
func EvaluateLottery(stake int64, picks []int, numbers []int) (bool, int64) {
	drawn := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		drawn[n] = true
	}

	matches := 0
	for _, p := range picks {
		if drawn[p] {
			matches++
		}
	}

	multiplier, ok := models.LotteryMultipliers[matches]
	if !ok {
		return false, 0
	}
	return true, stake * multiplier
}

// EvaluateMirror pays 5.5x on the correct 1-of-6 pick, floored.
func EvaluateMirror(stake int64, index int, winningIndex int) (bool, int64) {
	if index != winningIndex {
		return false, 0
	}
	return true, int64(math.Floor(float64(stake) * models.MirrorPayoutMultiplier))
}

func roundMultiplier(m float64) float64 {
	// Floor would shift values like 2.01 (stored as 200.99999...x100)
	// down a cent; round keeps every nominal 2-decimal value intact.
	return math.Round(m*100) / 100.0
}

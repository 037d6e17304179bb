package services_test

import (
	"testing"

	"points-arcade-backend/internal/models"
	"points-arcade-backend/internal/services"
)

func TestEvaluateWheel(t *testing.T) {
	won, payout := services.EvaluateWheel(100, models.WheelColorBlue, models.WheelColorBlue)
	if !won || payout != 1400 {
		t.Errorf("blue hit: expected win 1400, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateWheel(100, models.WheelColorRed, models.WheelColorRed)
	if !won || payout != 200 {
		t.Errorf("red hit: expected win 200, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateWheel(100, models.WheelColorGreen, models.WheelColorGreen)
	if !won || payout != 200 {
		t.Errorf("green hit: expected win 200, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateWheel(100, models.WheelColorBlue, models.WheelColorRed)
	if won || payout != 0 {
		t.Errorf("miss: expected loss, got won=%v payout=%d", won, payout)
	}
}

func TestEvaluateCrash(t *testing.T) {
	// Equality is a loss; the crash point must strictly exceed the target.
	won, payout := services.EvaluateCrash(100, 2.00, 2.00)
	if won || payout != 0 {
		t.Errorf("equality: expected loss, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateCrash(100, 2.00, 2.01)
	if !won || payout != 200 {
		t.Errorf("crash above target: expected win 200, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateCrash(100, 2.00, 1.99)
	if won || payout != 0 {
		t.Errorf("crash below target: expected loss, got won=%v payout=%d", won, payout)
	}

	// Both sides round to 2 decimals before comparing: a 1.994 target
	// becomes 1.99 and a 2.00 crash clears it, while 1.995 rounds up
	// to 2.00 and ties.
	won, payout = services.EvaluateCrash(100, 1.994, 2.00)
	if !won || payout != 199 {
		t.Errorf("rounded-down target: expected win 199, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateCrash(100, 1.995, 2.00)
	if won || payout != 0 {
		t.Errorf("rounded-up target: expected loss, got won=%v payout=%d", won, payout)
	}

	// Payout floors to whole points.
	won, payout = services.EvaluateCrash(33, 1.50, 3.00)
	if !won || payout != 49 {
		t.Errorf("floored payout: expected 49, got won=%v payout=%d", won, payout)
	}

	// Instant bust at 1.00 loses every target.
	won, payout = services.EvaluateCrash(100, 1.00, 1.00)
	if won || payout != 0 {
		t.Errorf("instant bust: expected loss, got won=%v payout=%d", won, payout)
	}
}

func TestEvaluateCrashCentBoundaries(t *testing.T) {
	// Many 2-decimal values (2.01, 1.13, ...) sit just below their
	// nominal value in binary; the comparison must still treat a
	// one-cent edge as a win and an exact tie as a loss at every cent.
	for cents := 100; cents <= 300; cents++ {
		target := float64(cents) / 100
		crash := float64(cents+1) / 100

		if won, _ := services.EvaluateCrash(100, target, crash); !won {
			t.Errorf("crash %.2f over target %.2f should win", crash, target)
		}
		if won, _ := services.EvaluateCrash(100, target, target); won {
			t.Errorf("crash equal to target %.2f should lose", target)
		}
	}
}

func TestEvaluateLottery(t *testing.T) {
	numbers := []int{5, 12, 23, 47, 68}

	won, payout := services.EvaluateLottery(100, []int{5, 12, 30, 40, 50}, numbers)
	if !won || payout != 2500 {
		t.Errorf("2 matches: expected 2500, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateLottery(100, []int{5, 12, 23, 40, 50}, numbers)
	if !won || payout != 20000 {
		t.Errorf("3 matches: expected 20000, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateLottery(10, []int{5, 12, 23, 47, 50}, numbers)
	if !won || payout != 15000 {
		t.Errorf("4 matches: expected 15000, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateLottery(1, []int{5, 12, 23, 47, 68}, numbers)
	if !won || payout != 10000 {
		t.Errorf("5 matches: expected 10000, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateLottery(100, []int{5, 13, 30, 40, 50}, numbers)
	if won || payout != 0 {
		t.Errorf("1 match: expected loss, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateLottery(100, []int{1, 2, 3, 4, 6}, numbers)
	if won || payout != 0 {
		t.Errorf("0 matches: expected loss, got won=%v payout=%d", won, payout)
	}
}

func TestEvaluateMirror(t *testing.T) {
	won, payout := services.EvaluateMirror(3, 2, 2)
	if !won || payout != 16 {
		t.Errorf("mirror hit: expected floor(3*5.5)=16, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateMirror(100, 2, 2)
	if !won || payout != 550 {
		t.Errorf("mirror hit: expected 550, got won=%v payout=%d", won, payout)
	}

	won, payout = services.EvaluateMirror(100, 1, 4)
	if won || payout != 0 {
		t.Errorf("mirror miss: expected loss, got won=%v payout=%d", won, payout)
	}
}

package services_test

import (
	"math"
	"math/rand"
	"testing"

	"points-arcade-backend/internal/services"
)

func TestWheelTileDistribution(t *testing.T) {
	gen := services.NewGeneratorWithSource(rand.NewSource(42))

	const draws = 15000
	counts := make([]int, 15)

	for i := 0; i < draws; i++ {
		tile := gen.WheelTile()
		if tile < 0 || tile > 14 {
			t.Fatalf("tile out of range: %d", tile)
		}
		counts[tile]++
	}

	// Each tile should land near draws/15 = 1000.
	for tile, count := range counts {
		if count < 800 || count > 1200 {
			t.Errorf("tile %d drawn %d times, expected ~1000", tile, count)
		}
	}
}

func TestCrashPointBounds(t *testing.T) {
	gen := services.NewGeneratorWithSource(rand.NewSource(7))

	for i := 0; i < 10000; i++ {
		point := gen.CrashPoint()

		if point < 1.00 || point > 1000.00 {
			t.Fatalf("crash point out of range: %f", point)
		}

		cents := point * 100
		if math.Abs(cents-math.Round(cents)) > 1e-6 {
			t.Fatalf("crash point not 2-decimal: %f", point)
		}
	}
}

func TestCrashPointTail(t *testing.T) {
	gen := services.NewGeneratorWithSource(rand.NewSource(99))

	const draws = 50000
	instantBusts := 0
	aboveTwo := 0

	for i := 0; i < draws; i++ {
		point := gen.CrashPoint()
		if point == 1.00 {
			instantBusts++
		}
		if point > 2.00 {
			aboveTwo++
		}
	}

	// ~3% forced instant busts plus the low end of the magnitude draw.
	bustRate := float64(instantBusts) / draws
	if bustRate < 0.03 || bustRate > 0.10 {
		t.Errorf("instant bust rate %.4f outside expected band", bustRate)
	}

	// P(point > 2.00) ~= 0.97 * 0.98/2 ~= 0.475.
	tailRate := float64(aboveTwo) / draws
	if tailRate < 0.44 || tailRate > 0.51 {
		t.Errorf("P(point > 2.00) = %.4f, expected ~0.475", tailRate)
	}
}

func TestLotteryNumbers(t *testing.T) {
	gen := services.NewGeneratorWithSource(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		numbers := gen.LotteryNumbers()

		if len(numbers) != 5 {
			t.Fatalf("expected 5 numbers, got %d", len(numbers))
		}

		for j, n := range numbers {
			if n < 1 || n > 90 {
				t.Fatalf("number out of range: %d", n)
			}
			if j > 0 && numbers[j-1] >= n {
				t.Fatalf("numbers not strictly ascending: %v", numbers)
			}
		}
	}
}

func TestMirrorIndex(t *testing.T) {
	gen := services.NewGeneratorWithSource(rand.NewSource(11))

	seen := make(map[int]bool)
	for i := 0; i < 600; i++ {
		index := gen.MirrorIndex()
		if index < 0 || index > 5 {
			t.Fatalf("mirror index out of range: %d", index)
		}
		seen[index] = true
	}

	if len(seen) != 6 {
		t.Errorf("expected all 6 mirrors drawn over 600 rounds, saw %d", len(seen))
	}
}

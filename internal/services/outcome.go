package services

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// OutcomeSource produces the random outcome for each game. Outcomes
// are drawn server-side only; nothing a client sends can influence or
// replay a draw.
type OutcomeSource interface {
	WheelTile() int
	CrashPoint() float64
	LotteryNumbers() []int
	MirrorIndex() int
}

// Generator is the production OutcomeSource. It wraps a single PRNG
// seeded from crypto/rand; a mutex makes it safe for concurrent
// rounds.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator() *Generator {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("failed to seed outcome generator: " + err.Error())
	}
	return &Generator{
		rng: rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:])))),
	}
}

// NewGeneratorWithSource builds a Generator over a caller-supplied
// source, used by tests that need deterministic draws.
func NewGeneratorWithSource(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// WheelTile draws a uniform tile in [0,14]. Tile 0 is blue, 1-7 red,
// 8-14 green.
func (g *Generator) WheelTile() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(15)
}

// CrashPoint draws the hidden bust multiplier. Two independent draws:
// a 3% instant-bust flag at exactly 1.00, then the magnitude draw
// 0.98/(1-u) rounded to 2 decimals and clamped to [1.00, 1000.00].
// The tail satisfies P(X > m) ~= 0.98/m, a 2% edge at any target.
func (g *Generator) CrashPoint() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rng.Float64() < 0.03 {
		return 1.00
	}

	u := g.rng.Float64()
	point := math.Round(100*0.98/(1-u)) / 100.0

	if point < 1.00 {
		point = 1.00
	}
	if point > 1000.00 {
		point = 1000.00
	}

	return point
}

// LotteryNumbers draws 5 distinct numbers from [1,90], ascending.
func (g *Generator) LotteryNumbers() []int {
	g.mu.Lock()
	defer g.mu.Unlock()

	numbers := make([]int, 0, 5)
	drawn := make(map[int]bool, 5)

	for len(numbers) < 5 {
		n := g.rng.Intn(90) + 1
		if drawn[n] {
			continue
		}
		drawn[n] = true
		numbers = append(numbers, n)
	}

	sort.Ints(numbers)
	return numbers
}

// MirrorIndex draws the winning mirror, uniform in [0,5].
func (g *Generator) MirrorIndex() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(6)
}

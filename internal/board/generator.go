// internal/board/generator.go
//
// Random fleet placement.
// Responsibilities:
//   - Place every ship of Fleet (largest first) by rejection sampling.
//   - Enforce the one-cell buffer between ships when Strict is set.
//   - Guarantee termination: a bounded retry budget per ship, then a
//     deterministic first-fit scan, then a bounded number of full restarts,
//     and finally a fixed known-valid layout.
//
// A Generator is safe for concurrent use.

package board

import (
	"math/rand/v2"
	"sync"
)

const (
	// DefaultRetryBudget is the number of random candidates tried per ship
	// before falling back to first-fit.
	DefaultRetryBudget = 200

	maxRestarts = 8
)

// Generator produces random boards.
type Generator struct {
	Strict      bool // forbid ships touching, including diagonally
	RetryBudget int  // random attempts per ship; <= 0 means DefaultRetryBudget

	mu  sync.Mutex
	rng *rand.Rand // nil uses the global source
}

// NewGenerator constructs a Generator. rng may be nil.
func NewGenerator(strict bool, retryBudget int, rng *rand.Rand) *Generator {
	return &Generator{Strict: strict, RetryBudget: retryBudget, rng: rng}
}

// Generate returns a board with the whole fleet placed.
func (g *Generator) Generate() Board {
	return g.Layout().Board
}

// Layout places the fleet and returns both the board and the ship list.
func (g *Generator) Layout() Layout {
	for attempt := 0; attempt < maxRestarts; attempt++ {
		if l, ok := g.tryLayout(); ok {
			return l
		}
	}
	return FixedLayout()
}

func (g *Generator) tryLayout() (Layout, bool) {
	var l Layout
	for _, size := range Fleet {
		s, ok := g.sample(&l.Board, size)
		if !ok {
			s, ok = firstFit(&l.Board, size, g.Strict)
		}
		if !ok {
			return l, false
		}
		l.place(s)
	}
	return l, true
}

// sample draws random orientation + anchor until a candidate fits or the budget runs out.
func (g *Generator) sample(b *Board, size int) (Ship, bool) {
	budget := g.RetryBudget
	if budget <= 0 {
		budget = DefaultRetryBudget
	}
	for i := 0; i < budget; i++ {
		vertical := g.intn(2) == 1
		maxRow, maxCol := Size, Size
		if vertical {
			maxRow = Size - size + 1
		} else {
			maxCol = Size - size + 1
		}
		s := Ship{
			Anchor:   Coord{Row: g.intn(maxRow), Col: g.intn(maxCol)},
			Size:     size,
			Vertical: vertical,
		}
		if fits(b, s, g.Strict) {
			return s, true
		}
	}
	return Ship{}, false
}

func (g *Generator) intn(n int) int {
	if g.rng == nil {
		return rand.IntN(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

// firstFit scans anchors in row-major order, horizontal before vertical.
func firstFit(b *Board, size int, strict bool) (Ship, bool) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			for _, vertical := range [2]bool{false, true} {
				s := Ship{Anchor: Coord{Row: r, Col: c}, Size: size, Vertical: vertical}
				if inBounds(s) && fits(b, s, strict) {
					return s, true
				}
			}
		}
	}
	return Ship{}, false
}

func inBounds(s Ship) bool {
	cells := s.Cells()
	return cells[0].Valid() && cells[len(cells)-1].Valid()
}

// fits reports whether s can be placed on b. Strict also rejects any
// occupied neighbour, diagonals included.
func fits(b *Board, s Ship, strict bool) bool {
	for _, c := range s.Cells() {
		if b.HasShip(c) {
			return false
		}
		if !strict {
			continue
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if b.HasShip(Coord{Row: c.Row + dr, Col: c.Col + dc}) {
					return false
				}
			}
		}
	}
	return true
}

// FixedLayout is the last-resort placement. It satisfies the strict buffer rule.
func FixedLayout() Layout {
	var l Layout
	for _, s := range []Ship{
		{Anchor: Coord{Row: 0, Col: 0}, Size: 4},
		{Anchor: Coord{Row: 0, Col: 5}, Size: 3},
		{Anchor: Coord{Row: 2, Col: 0}, Size: 3},
		{Anchor: Coord{Row: 2, Col: 4}, Size: 2},
		{Anchor: Coord{Row: 2, Col: 7}, Size: 2},
		{Anchor: Coord{Row: 4, Col: 0}, Size: 2},
		{Anchor: Coord{Row: 4, Col: 3}, Size: 1},
		{Anchor: Coord{Row: 4, Col: 5}, Size: 1},
		{Anchor: Coord{Row: 4, Col: 7}, Size: 1},
		{Anchor: Coord{Row: 4, Col: 9}, Size: 1},
	} {
		l.place(s)
	}
	return l
}

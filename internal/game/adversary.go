// internal/game/adversary.go
//
// The computer opponent: fires at a uniformly random untried cell.
// The random source is injectable so tests can replay a fixed sequence.

package game

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/robalobadob/seabattle/internal/board"
)

// ErrNoTargets is returned when every cell has already been fired at.
var ErrNoTargets = errors.New("no untried coordinates left")

// Targets is the explicit pool of cells the adversary has not fired at yet.
// Picks swap-remove from the pool, so each choice is O(1).
type Targets struct {
	cells []board.Coord
}

// NewTargets builds the pool of grid cells absent from rec.
func NewTargets(rec ShotRecord) *Targets {
	t := &Targets{cells: make([]board.Coord, 0, board.Size*board.Size-len(rec))}
	for _, c := range board.AllCoords() {
		if _, done := rec[c]; !done {
			t.cells = append(t.cells, c)
		}
	}
	return t
}

// Len returns the number of cells left in the pool.
func (t *Targets) Len() int { return len(t.cells) }

func (t *Targets) take(i int) board.Coord {
	c := t.cells[i]
	last := len(t.cells) - 1
	t.cells[i] = t.cells[last]
	t.cells = t.cells[:last]
	return c
}

// Adversary is the AI opponent: pure uniform random search over untried
// cells, with no follow-up on hits. Safe for concurrent use.
type Adversary struct {
	mu  sync.Mutex
	rng *rand.Rand // nil uses the global source
}

// NewAdversary constructs an Adversary. rng may be nil.
func NewAdversary(rng *rand.Rand) *Adversary {
	return &Adversary{rng: rng}
}

// ChooseShot returns a uniformly random coordinate not present in rec.
func (a *Adversary) ChooseShot(rec ShotRecord) (board.Coord, error) {
	return a.pick(NewTargets(rec), rec)
}

// pick draws from t, discarding entries that rec already holds (a pool
// can go stale if shots were recorded without it).
func (a *Adversary) pick(t *Targets, rec ShotRecord) (board.Coord, error) {
	for t.Len() > 0 {
		c := t.take(a.intn(t.Len()))
		if _, done := rec[c]; !done {
			return c, nil
		}
	}
	return board.Coord{}, ErrNoTargets
}

func (a *Adversary) intn(n int) int {
	if a.rng == nil {
		return rand.IntN(n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.IntN(n)
}

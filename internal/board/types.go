// internal/board/types.go
//
// Core type definitions for the Sea Battle grid.
// Defines:
//   - Cell:  contents of a single square (empty/ship).
//   - Board: fixed 10x10 grid of cells for one side.
//   - Coord: zero-based row/column address, parsed from "A1".."J10".
//   - Ship:  one placed vessel (anchor, size, orientation).
//   - Fleet: the fixed multiset of ship sizes every board carries.

package board

import "errors"

// Size is the width and height of every board.
const Size = 10

// Fleet lists the ship sizes placed on every board, largest first.
var Fleet = []int{4, 3, 3, 2, 2, 2, 1, 1, 1, 1}

// FleetCells is the total number of ship cells on a complete board (20).
var FleetCells = func() int {
	n := 0
	for _, s := range Fleet {
		n += s
	}
	return n
}()

// ErrInvalidCoordinate is returned for malformed or out-of-grid coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Cell represents the contents of a single board square.
type Cell uint8

const (
	Empty Cell = iota
	ShipCell
)

// Board is a 10x10 grid indexed as [row][col].
// Once generated it is never modified for the rest of a match.
type Board [Size][Size]Cell

// Coord addresses a cell. Row and Col are zero-based.
// The textual form is column letter + row number, e.g. Coord{Row: 0, Col: 0} is "A1".
type Coord struct {
	Row int
	Col int
}

// Ship is a straight run of Size cells starting at Anchor and extending
// right (horizontal) or down (vertical).
type Ship struct {
	Anchor   Coord
	Size     int
	Vertical bool
}

// Cells returns the coordinates covered by the ship.
func (s Ship) Cells() []Coord {
	out := make([]Coord, 0, s.Size)
	for i := 0; i < s.Size; i++ {
		if s.Vertical {
			out = append(out, Coord{Row: s.Anchor.Row + i, Col: s.Anchor.Col})
		} else {
			out = append(out, Coord{Row: s.Anchor.Row, Col: s.Anchor.Col + i})
		}
	}
	return out
}

// Layout is a generated board together with the ships that produced it.
type Layout struct {
	Board Board
	Ships []Ship
}

func (l *Layout) place(s Ship) {
	for _, c := range s.Cells() {
		l.Board[c.Row][c.Col] = ShipCell
	}
	l.Ships = append(l.Ships, s)
}

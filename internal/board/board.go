// internal/board/board.go
//
// Board queries and the persisted text form.
// Responsibilities:
//   - Cell lookups and ship-cell counting.
//   - Connected-segment analysis (used to verify generated fleets).
//   - Encode/Decode as a 100-char "0"/"1" string for storage.

package board

import (
	"errors"
	"sort"
	"strings"
)

// At returns the cell at c. Off-grid coordinates read as Empty.
func (b *Board) At(c Coord) Cell {
	if !c.Valid() {
		return Empty
	}
	return b[c.Row][c.Col]
}

// HasShip reports whether c is occupied by a ship.
func (b *Board) HasShip(c Coord) bool { return b.At(c) == ShipCell }

// ShipCells counts occupied cells.
func (b *Board) ShipCells() int {
	n := 0
	for r := range b {
		for c := range b[r] {
			if b[r][c] == ShipCell {
				n++
			}
		}
	}
	return n
}

// Segments returns the sizes of orthogonally connected ship groups, largest first.
// On a board generated in strict mode this equals Fleet.
func (b *Board) Segments() []int {
	var seen [Size][Size]bool
	var out []int
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] != ShipCell || seen[r][c] {
				continue
			}
			// flood fill
			n := 0
			stack := []Coord{{Row: r, Col: c}}
			seen[r][c] = true
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				n++
				for _, d := range [4]Coord{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nb := Coord{Row: cur.Row + d.Row, Col: cur.Col + d.Col}
					if nb.Valid() && b[nb.Row][nb.Col] == ShipCell && !seen[nb.Row][nb.Col] {
						seen[nb.Row][nb.Col] = true
						stack = append(stack, nb)
					}
				}
			}
			out = append(out, n)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Rows renders the board as ten strings of '0' (empty) and '1' (ship).
func (b *Board) Rows() []string {
	out := make([]string, Size)
	for r := 0; r < Size; r++ {
		var sb strings.Builder
		for c := 0; c < Size; c++ {
			if b[r][c] == ShipCell {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		out[r] = sb.String()
	}
	return out
}

// Encode returns the 100-char row-major binary form.
func (b *Board) Encode() string { return strings.Join(b.Rows(), "") }

// Decode parses the form produced by Encode.
func Decode(s string) (Board, error) {
	var b Board
	if len(s) != Size*Size {
		return b, errors.New("board: encoded length must be 100")
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			b[i/Size][i%Size] = ShipCell
		default:
			return b, errors.New("board: encoded cells must be 0 or 1")
		}
	}
	return b, nil
}

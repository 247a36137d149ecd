// internal/board/coord.go
//
// Grid coordinates in their "A1".."J10" text form.
// The letter names the column (A-J) and the number the row (1-10).

package board

import (
	"fmt"
	"strings"
)

// ParseCoord converts "A1".."J10" (case-insensitive, surrounding spaces ignored)
// into a Coord. Leading zeros ("A01") and anything outside the grid are rejected.
func ParseCoord(s string) (Coord, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 || len(s) > 3 {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	letter := s[0]
	if letter < 'A' || letter >= 'A'+Size {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	digits := s[1:]
	if digits[0] == '0' {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	n := 0
	for i := 0; i < len(digits); i++ {
		d := digits[i]
		if d < '0' || d > '9' {
			return Coord{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
		}
		n = n*10 + int(d-'0')
	}
	if n < 1 || n > Size {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	return Coord{Row: n - 1, Col: int(letter - 'A')}, nil
}

// MustCoord is ParseCoord for literals known to be valid. It panics otherwise.
func MustCoord(s string) Coord {
	c, err := ParseCoord(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether c lies on the grid.
func (c Coord) Valid() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// String renders the coordinate as letter + number ("A1").
func (c Coord) String() string {
	if !c.Valid() {
		return fmt.Sprintf("?%d,%d", c.Row, c.Col)
	}
	return fmt.Sprintf("%c%d", 'A'+c.Col, c.Row+1)
}

// AllCoords returns every grid coordinate in row-major order.
func AllCoords() []Coord {
	out := make([]Coord, 0, Size*Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			out = append(out, Coord{Row: r, Col: c})
		}
	}
	return out
}

// MarshalText lets Coord serve as a JSON map key ("A1").
func (c Coord) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: row %d col %d", ErrInvalidCoordinate, c.Row, c.Col)
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses the form produced by MarshalText.
func (c *Coord) UnmarshalText(b []byte) error {
	parsed, err := ParseCoord(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

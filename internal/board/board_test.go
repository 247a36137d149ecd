package board

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoord(t *testing.T) {
	testCases := []struct {
		Name     string
		Input    string
		Expected Coord
		Err      bool
	}{
		{Name: "top left", Input: "A1", Expected: Coord{Row: 0, Col: 0}},
		{Name: "bottom right", Input: "J10", Expected: Coord{Row: 9, Col: 9}},
		{Name: "lowercase and spaces", Input: "  c7 ", Expected: Coord{Row: 6, Col: 2}},
		{Name: "letter out of range", Input: "K1", Err: true},
		{Name: "row zero", Input: "A0", Err: true},
		{Name: "row eleven", Input: "A11", Err: true},
		{Name: "leading zero", Input: "A01", Err: true},
		{Name: "empty", Input: "", Err: true},
		{Name: "digits only", Input: "11", Err: true},
		{Name: "trailing garbage", Input: "B2x", Err: true},
		{Name: "too long", Input: "A100", Err: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			c, err := ParseCoord(testCase.Input)
			if testCase.Err {
				require.ErrorIs(t, err, ErrInvalidCoordinate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.Expected, c)
		})
	}
}

func TestCoord_StringRoundTrip(t *testing.T) {
	for _, c := range AllCoords() {
		back, err := ParseCoord(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, back)
	}
	assert.Len(t, AllCoords(), Size*Size)
}

func TestFleetCells(t *testing.T) {
	assert.Equal(t, 20, FleetCells)
}

func TestGenerator_Strict(t *testing.T) {
	g := NewGenerator(true, DefaultRetryBudget, rand.New(rand.NewPCG(1, 2)))

	for i := 0; i < 200; i++ {
		l := g.Layout()

		assert.Equal(t, FleetCells, l.Board.ShipCells())
		assert.Equal(t, Fleet, l.Board.Segments())
		require.Len(t, l.Ships, len(Fleet))

		// no two ships share an edge or a corner
		for a := 0; a < len(l.Ships); a++ {
			for b := a + 1; b < len(l.Ships); b++ {
				for _, ca := range l.Ships[a].Cells() {
					for _, cb := range l.Ships[b].Cells() {
						touching := abs(ca.Row-cb.Row) <= 1 && abs(ca.Col-cb.Col) <= 1
						require.False(t, touching, "ships %v and %v touch", l.Ships[a], l.Ships[b])
					}
				}
			}
		}
	}
}

func TestGenerator_Loose(t *testing.T) {
	g := NewGenerator(false, DefaultRetryBudget, rand.New(rand.NewPCG(3, 4)))

	for i := 0; i < 200; i++ {
		l := g.Layout()
		assert.Equal(t, FleetCells, l.Board.ShipCells())

		sizes := make([]int, 0, len(l.Ships))
		for _, s := range l.Ships {
			sizes = append(sizes, s.Size)
			for _, c := range s.Cells() {
				require.True(t, c.Valid())
			}
		}
		assert.Equal(t, Fleet, sizes)
	}
}

func TestGenerator_FallsBackWithoutRandomHits(t *testing.T) {
	// A budget of one forces first-fit for most ships.
	g := NewGenerator(true, 1, rand.New(rand.NewPCG(5, 6)))
	for i := 0; i < 50; i++ {
		b := g.Generate()
		assert.Equal(t, FleetCells, b.ShipCells())
		assert.Equal(t, Fleet, b.Segments())
	}
}

func TestFixedLayout(t *testing.T) {
	l := FixedLayout()
	assert.Equal(t, FleetCells, l.Board.ShipCells())
	assert.Equal(t, Fleet, l.Board.Segments())
}

func TestFirstFit_FullBoard(t *testing.T) {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			b[r][c] = ShipCell
		}
	}
	_, ok := firstFit(&b, 1, false)
	assert.False(t, ok)
}

func TestBoard_EncodeDecode(t *testing.T) {
	b := FixedLayout().Board
	enc := b.Encode()
	require.Len(t, enc, 100)
	assert.Equal(t, "1111011100", enc[:10])

	back, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, b, back)

	_, err = Decode("01")
	assert.Error(t, err)
	_, err = Decode(string(make([]byte, 100)))
	assert.Error(t, err)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

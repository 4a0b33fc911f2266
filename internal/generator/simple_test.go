package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svw.info/numbermaster/internal/domain"
)

func TestLayoutCellCountPerLevel(t *testing.T) {
	g := NewRandomGenerator(12345)

	cases := []struct {
		level int
		cells int
		rows  int
	}{
		{1, 18, 2},
		{2, 20, 3},
		{5, 26, 3},
		{10, 36, 4},
		{11, 38, 5},
	}

	for _, tc := range cases {
		grid := g.Layout(tc.level)
		require.Len(t, grid, tc.rows, "level %d", tc.level)

		active := 0
		for r, row := range grid {
			require.Len(t, row, domain.Columns, "row %d at level %d", r, tc.level)
			for c, v := range row {
				idx := r*domain.Columns + c
				if idx < tc.cells {
					assert.GreaterOrEqual(t, v, 1)
					assert.LessOrEqual(t, v, 9)
					active++
				} else {
					assert.Zero(t, v, "padding at %d,%d", r, c)
				}
			}
		}
		assert.Equal(t, tc.cells, active, "level %d", tc.level)
		assert.Equal(t, tc.cells, CellCount(tc.level))
	}
}

func TestLayoutDeterministicForSeed(t *testing.T) {
	a := NewRandomGenerator(42).Layout(3)
	b := NewRandomGenerator(42).Layout(3)
	assert.Equal(t, a, b)
}

func TestLayoutCoversAllDigits(t *testing.T) {
	g := NewRandomGenerator(7)
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		for _, row := range g.Layout(1) {
			for _, v := range row {
				if v > 0 {
					seen[v] = true
				}
			}
		}
	}
	assert.Len(t, seen, 9)
}

func TestFixedReplaysLayouts(t *testing.T) {
	f := &Fixed{Layouts: []domain.Grid{
		{{1, 2, 0, 0, 0, 0, 0, 0, 0}},
		{{3, 4, 0, 0, 0, 0, 0, 0, 0}},
	}}
	assert.Equal(t, 1, f.Layout(1)[0][0])
	assert.Equal(t, 3, f.Layout(2)[0][0])
	assert.Equal(t, 3, f.Layout(3)[0][0])

	// callers may mutate the result without touching the queue
	g := f.Layout(4)
	g[0][0] = 9
	assert.Equal(t, 3, f.Layout(5)[0][0])
}

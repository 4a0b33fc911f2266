package generator

import "svw.info/numbermaster/internal/domain"

// CellCount is the number of digits dealt at a level.
func CellCount(level int) int {
	return domain.BaseCells + (level-1)*domain.CellsPerLevel
}

// Layout deals CellCount(level) digits row-major and pads the last row with empties.
// No attempt is made to guarantee the layout has a legal match.
func (g *RandomGenerator) Layout(level int) domain.Grid {
	n := CellCount(level)
	if n < 0 {
		n = 0
	}
	rows := (n + domain.Columns - 1) / domain.Columns
	grid := make(domain.Grid, rows)
	for r := range grid {
		grid[r] = make([]int, domain.Columns)
	}
	for i := 0; i < n; i++ {
		grid[i/domain.Columns][i%domain.Columns] = g.Rand.IntN(domain.MaxValue) + domain.MinValue
	}
	return grid
}

// Fixed replays a predetermined sequence of layouts. Tests use it to pin regeneration.
type Fixed struct {
	Layouts []domain.Grid
	next    int
}

// Layout returns the next queued layout, repeating the last one when exhausted.
func (f *Fixed) Layout(level int) domain.Grid {
	if len(f.Layouts) == 0 {
		return domain.Grid{}
	}
	i := f.next
	if i >= len(f.Layouts) {
		i = len(f.Layouts) - 1
	} else {
		f.next++
	}
	return f.Layouts[i].Clone()
}

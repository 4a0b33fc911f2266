package engine

import "svw.info/numbermaster/internal/domain"

// ValidPair reports whether two raw cell values may be paired: both active,
// and equal or summing to ten.
func ValidPair(x, y int) bool {
	if x <= 0 || y <= 0 {
		return false
	}
	return x == y || x+y == domain.PairSum
}

// PathClear reports whether b is reachable from a. Only active cells block.
// Straight lines (row, column, diagonal) are tried first; otherwise the two cells
// must be neighbours in the row-major sequence of active cells, or its two ends.
func PathClear(g domain.Grid, a, b domain.Position) bool {
	if a == b {
		return false
	}
	dr, dc := b.Row-a.Row, b.Col-a.Col
	if dr == 0 && !obstaclesBetween(g, a, b) {
		return true
	}
	if dc == 0 && !obstaclesBetween(g, a, b) {
		return true
	}
	if abs(dr) == abs(dc) && !obstaclesBetween(g, a, b) {
		return true
	}
	return sequenceNeighbours(g, a, b)
}

// CanMatch combines ValidPair and PathClear for two in-bounds positions.
func CanMatch(g domain.Grid, a, b domain.Position) bool {
	return a != b && ValidPair(g.At(a), g.At(b)) && PathClear(g, a, b)
}

// Apply returns a copy of g after matching a and b and collapsing cleared rows.
// It never regenerates; the caller decides what a cleared grid means.
func Apply(g domain.Grid, a, b domain.Position) (domain.Grid, bool) {
	if !CanMatch(g, a, b) {
		return g, false
	}
	out := g.Clone()
	out[a.Row][a.Col] = -out[a.Row][a.Col]
	out[b.Row][b.Col] = -out[b.Row][b.Col]
	return dropClearedRows(out), true
}

// ActiveSequence lists active cells in row-major order.
func ActiveSequence(g domain.Grid) []domain.Position {
	var seq []domain.Position
	for r, row := range g {
		for c, v := range row {
			if v > 0 {
				seq = append(seq, domain.Position{Row: r, Col: c})
			}
		}
	}
	return seq
}

// LegalPairs enumerates every matchable pair, each once, ordered by its first cell.
func LegalPairs(g domain.Grid) []domain.Pair {
	seq := ActiveSequence(g)
	var out []domain.Pair
	for i := 0; i < len(seq); i++ {
		for j := i + 1; j < len(seq); j++ {
			if CanMatch(g, seq[i], seq[j]) {
				out = append(out, domain.Pair{A: seq[i], B: seq[j]})
			}
		}
	}
	return out
}

// IsCleared reports whether no active cell remains.
func IsCleared(g domain.Grid) bool {
	for _, row := range g {
		for _, v := range row {
			if v > 0 {
				return false
			}
		}
	}
	return true
}

// CountActive returns the number of active cells.
func CountActive(g domain.Grid) int {
	n := 0
	for _, row := range g {
		for _, v := range row {
			if v > 0 {
				n++
			}
		}
	}
	return n
}

// dropClearedRows keeps, in order, only rows with an active cell.
func dropClearedRows(g domain.Grid) domain.Grid {
	out := g[:0]
	for _, row := range g {
		for _, v := range row {
			if v > 0 {
				out = append(out, row)
				break
			}
		}
	}
	for i := len(out); i < len(g); i++ {
		g[i] = nil
	}
	return out
}

func obstaclesBetween(g domain.Grid, a, b domain.Position) bool {
	rowStep, colStep := sign(b.Row-a.Row), sign(b.Col-a.Col)
	dist := max(abs(b.Row-a.Row), abs(b.Col-a.Col))
	for i := 1; i < dist; i++ {
		if g[a.Row+i*rowStep][a.Col+i*colStep] > 0 {
			return true
		}
	}
	return false
}

func sequenceNeighbours(g domain.Grid, a, b domain.Position) bool {
	seq := ActiveSequence(g)
	ia, ib := -1, -1
	for i, p := range seq {
		switch p {
		case a:
			ia = i
		case b:
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return false
	}
	last := len(seq) - 1
	if abs(ia-ib) == 1 {
		return true
	}
	return (ia == 0 && ib == last) || (ib == 0 && ia == last)
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

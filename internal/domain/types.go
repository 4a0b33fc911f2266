package domain

// Grid is the signed-integer cell matrix: 0 empty, >0 active, <0 matched.
// Rows are always Columns wide.
type Grid [][]int

// Position identifies a cell on the grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Pair is two positions selected together for a match attempt.
type Pair struct {
	A Position `json:"a"`
	B Position `json:"b"`
}

// Snapshot is the persisted session record.
type Snapshot struct {
	Grid  Grid `json:"grid"`
	Score int  `json:"score"`
	Level int  `json:"level"`
}

// SessionMeta is a lightweight listing entry.
type SessionMeta struct {
	ID        string `json:"id"`
	Score     int    `json:"score"`
	Level     int    `json:"level"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Hint describes a suggested pair for the UI.
type Hint struct {
	Message string     `json:"message,omitempty"`
	Cells   []Position `json:"cells,omitempty"`
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// At returns the value at p. p must be in bounds.
func (g Grid) At(p Position) int { return g[p.Row][p.Col] }

// InBounds reports whether p addresses an existing cell.
func (g Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < len(g) && p.Col >= 0 && p.Col < len(g[p.Row])
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	s.Grid = s.Grid.Clone()
	return s
}

// Package engine holds the matching and grid-evolution rules.
//
// A Game is owned by exactly one caller at a time; it does no locking and no I/O.
// Coordinates passed in must address existing cells.
package engine

import (
	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/ports"
)

// Game is a single-player session: the grid, the cumulative score and the stage.
type Game struct {
	grid  domain.Grid
	level int
	score int
	gen   ports.Generator
}

// New starts a session at level and deals its first grid.
func New(level int, gen ports.Generator) *Game {
	if level < 1 {
		level = 1
	}
	g := &Game{level: level, gen: gen}
	g.GenerateInitialMatrix()
	return g
}

// Restore resumes a session from a saved snapshot. The snapshot is copied.
func Restore(s domain.Snapshot, gen ports.Generator) *Game {
	level := s.Level
	if level < 1 {
		level = 1
	}
	return &Game{grid: s.Grid.Clone(), level: level, score: s.Score, gen: gen}
}

// GenerateInitialMatrix replaces the grid with a fresh layout for the current level.
func (g *Game) GenerateInitialMatrix() {
	g.grid = g.gen.Layout(g.level)
}

// AttemptToMatch pairs a and b if they hold equal values or values summing to ten
// and are reachable. On success both cells are marked matched, the score rises,
// cleared rows collapse, and a cleared grid advances the level with a fresh deal.
// A rejected attempt leaves the session untouched.
func (g *Game) AttemptToMatch(a, b domain.Position) bool {
	if !CanMatch(g.grid, a, b) {
		return false
	}
	g.grid[a.Row][a.Col] = -g.grid[a.Row][a.Col]
	g.grid[b.Row][b.Col] = -g.grid[b.Row][b.Col]
	g.score += domain.PointsPerMatch

	g.clearCompletedRows()

	if len(g.grid) == 0 || IsCleared(g.grid) {
		if g.level < domain.MaxLevel {
			g.level++
		}
		g.GenerateInitialMatrix()
	}
	return true
}

// AddMoreNumbers copies every active value, in row-major order, into the slots
// following the last active cell, growing the grid with empty rows as needed.
func (g *Game) AddMoreNumbers() {
	var values []int
	lastRow, lastCol := -1, -1
	for r, row := range g.grid {
		for c, v := range row {
			if v > 0 {
				values = append(values, v)
				lastRow, lastCol = r, c
			}
		}
	}
	if len(values) == 0 {
		return
	}

	row, col := 0, 0
	if lastRow >= 0 {
		row, col = lastRow, lastCol+1
	}
	for _, v := range values {
		if col >= domain.Columns {
			col = 0
			row++
		}
		if row >= len(g.grid) {
			g.grid = append(g.grid, make([]int, domain.Columns))
		}
		g.grid[row][col] = v
		col++
	}
}

// clearCompletedRows drops every row without an active cell.
func (g *Game) clearCompletedRows() {
	g.grid = dropClearedRows(g.grid)
}

// IsWon reports whether the grid has no rows or no active cell.
func (g *Game) IsWon() bool {
	return len(g.grid) == 0 || IsCleared(g.grid)
}

// CanMatch reports whether AttemptToMatch(a, b) would succeed.
func (g *Game) CanMatch(a, b domain.Position) bool {
	return CanMatch(g.grid, a, b)
}

// Grid returns a copy of the current grid.
func (g *Game) Grid() domain.Grid { return g.grid.Clone() }

func (g *Game) Score() int { return g.score }

func (g *Game) Level() int { return g.level }

// Rows returns the current number of rows.
func (g *Game) Rows() int { return len(g.grid) }

// InBounds reports whether p addresses an existing cell.
func (g *Game) InBounds(p domain.Position) bool { return g.grid.InBounds(p) }

// Snapshot returns the persisted shape of the session.
func (g *Game) Snapshot() domain.Snapshot {
	return domain.Snapshot{Grid: g.grid.Clone(), Score: g.score, Level: g.level}
}

package domain

// Game constants.
const (
	Columns        = 9
	PointsPerMatch = 4
	BaseCells      = 18
	CellsPerLevel  = 2
	MinValue       = 1
	MaxValue       = 9
	PairSum        = 10

	// MaxLevel is the highest stage. Clearing it deals it again.
	MaxLevel = 1000
)

// CellState is the status encoded by the sign of a cell value.
type CellState int

const (
	Empty   CellState = iota // zero; transparent, never matchable
	Active                   // positive; matchable and an obstacle
	Matched                  // negative; inert, keeps its magnitude
)

// StateOf classifies a raw cell value.
func StateOf(v int) CellState {
	switch {
	case v > 0:
		return Active
	case v < 0:
		return Matched
	default:
		return Empty
	}
}

func (s CellState) String() string {
	switch s {
	case Active:
		return "active"
	case Matched:
		return "matched"
	default:
		return "empty"
	}
}

// Face returns the displayed digit of a cell value regardless of state.
func Face(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

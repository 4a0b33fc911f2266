package solver

import (
	"errors"
	"strings"

	"svw.info/numbermaster/internal/domain"
)

var (
	ErrUnsolvable      = errors.New("no match sequence clears the grid")
	ErrBudgetExhausted = errors.New("search budget exhausted")
)

// DefaultMaxNodes bounds a search when the caller does not.
const DefaultMaxNodes = 200_000

// BacktrackingSolver is a depth-first search over match sequences. It never adds
// numbers, so a failure only means the grid cannot be cleared as it stands.
type BacktrackingSolver struct {
	MaxNodes int
}

func NewBacktrackingSolver(maxNodes int) *BacktrackingSolver {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	return &BacktrackingSolver{MaxNodes: maxNodes}
}

// --- helpers used by Solve (in backtrack_solve.go) ---

// stateKey encodes the parts of a grid that matter for future moves: matched and
// empty cells behave identically, so both encode as '.'.
func stateKey(g domain.Grid) string {
	var sb strings.Builder
	sb.Grow(len(g) * (domain.Columns + 1))
	for _, row := range g {
		for _, v := range row {
			if v > 0 {
				sb.WriteByte(byte('0' + v))
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('/')
	}
	return sb.String()
}

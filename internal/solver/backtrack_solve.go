package solver

import (
	"context"
	"time"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/engine"
	"svw.info/numbermaster/internal/ports"
)

// Solve returns a sequence of pairs that, replayed in order against the grid,
// leaves no active cell. Positions in each pair refer to the grid as it stands
// after the previous pairs, rows collapsed.
func (s *BacktrackingSolver) Solve(ctx context.Context, g domain.Grid) ([]domain.Pair, ports.Stats, error) {
	start := time.Now()
	nodes := 0
	dead := make(map[string]struct{})
	var path []domain.Pair
	var failure error

	var dfs func(domain.Grid) bool
	dfs = func(cur domain.Grid) bool {
		if engine.IsCleared(cur) {
			return true
		}
		if err := ctx.Err(); err != nil {
			failure = err
			return false
		}
		key := stateKey(cur)
		if _, seen := dead[key]; seen {
			return false
		}
		for _, p := range engine.LegalPairs(cur) {
			nodes++
			if nodes > s.MaxNodes {
				failure = ErrBudgetExhausted
				return false
			}
			next, _ := engine.Apply(cur, p.A, p.B)
			path = append(path, p)
			if dfs(next) {
				return true
			}
			path = path[:len(path)-1]
			if failure != nil {
				return false
			}
		}
		dead[key] = struct{}{}
		return false
	}

	ok := dfs(g.Clone())
	st := ports.Stats{Nodes: nodes, Duration: time.Since(start)}
	if ok {
		return path, st, nil
	}
	if failure != nil {
		return nil, st, failure
	}
	return nil, st, ErrUnsolvable
}

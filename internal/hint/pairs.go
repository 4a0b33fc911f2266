package hint

import (
	"context"
	"fmt"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/engine"
)

// FirstPair implements a minimal Hinter that points at the first legal pair.
type FirstPair struct{}

func NewFirstPair() *FirstPair { return &FirstPair{} }

// Hint scans active cells row-major and returns the first pair that would match.
// No hint means the only way forward is adding more numbers.
func (h *FirstPair) Hint(ctx context.Context, g domain.Grid) (domain.Hint, bool, error) {
	seq := engine.ActiveSequence(g)
	for i := 0; i < len(seq); i++ {
		if err := ctx.Err(); err != nil {
			return domain.Hint{}, false, err
		}
		for j := i + 1; j < len(seq); j++ {
			if !engine.CanMatch(g, seq[i], seq[j]) {
				continue
			}
			x, y := g.At(seq[i]), g.At(seq[j])
			msg := fmt.Sprintf("Pair: %d and %d", x, y)
			if x != y {
				msg = fmt.Sprintf("Pair: %d + %d = %d", x, y, domain.PairSum)
			}
			return domain.Hint{
				Message: msg,
				Cells:   []domain.Position{seq[i], seq[j]},
			}, true, nil
		}
	}
	return domain.Hint{}, false, nil
}

package validator

import (
	"context"
	"errors"

	"svw.info/numbermaster/internal/domain"
)

var (
	ErrNilSnapshot = errors.New("nil snapshot")
	ErrLevel       = errors.New("level out of range")
	ErrScore       = errors.New("score must not be negative")
	ErrRowWidth    = errors.New("row width mismatch")
	ErrCellValue   = errors.New("cell value out of range")
)

type ShapeValidator struct{}

func New() *ShapeValidator { return &ShapeValidator{} }

// Validate checks a snapshot against the persisted layout. Bad cells are reported
// as positions; a row of the wrong width is reported at column -1.
// The returned error names the first class of problem found.
func (v *ShapeValidator) Validate(ctx context.Context, s *domain.Snapshot) (bool, []domain.Position, error) {
	if s == nil {
		return false, nil, ErrNilSnapshot
	}
	var firstErr error
	note := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	if s.Level < 1 || s.Level > domain.MaxLevel {
		note(ErrLevel)
	}
	if s.Score < 0 {
		note(ErrScore)
	}

	bad := make([]domain.Position, 0, 4)
	for r, row := range s.Grid {
		if len(row) != domain.Columns {
			bad = append(bad, domain.Position{Row: r, Col: -1})
			note(ErrRowWidth)
		}
		for c, val := range row {
			if val < -domain.MaxValue || val > domain.MaxValue {
				bad = append(bad, domain.Position{Row: r, Col: c})
				note(ErrCellValue)
			}
		}
	}
	return firstErr == nil, bad, firstErr
}

package ports

import (
	"context"
	"errors"
	"time"

	"svw.info/numbermaster/internal/domain"
)

// ErrNotFound is returned by Storage when no session is saved under an id.
var ErrNotFound = errors.New("session not found")

// Stats captures performance characteristics of an operation.
type Stats struct {
	Nodes    int
	Duration time.Duration
}

// Generator produces a fresh layout for a level.
type Generator interface {
	Layout(level int) domain.Grid
}

// Validator performs shape checks on a restored snapshot.
type Validator interface {
	Validate(ctx context.Context, s *domain.Snapshot) (ok bool, bad []domain.Position, err error)
}

// Hinter returns a legal pair on the grid, if any.
type Hinter interface {
	Hint(ctx context.Context, g domain.Grid) (domain.Hint, bool, error)
}

// Solver searches for a match sequence that clears the grid.
type Solver interface {
	Solve(ctx context.Context, g domain.Grid) ([]domain.Pair, Stats, error)
}

// Storage persists sessions and the high score.
type Storage interface {
	SaveSession(ctx context.Context, id string, s *domain.Snapshot) error
	LoadSession(ctx context.Context, id string) (*domain.Snapshot, error)
	ClearSession(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.SessionMeta, error)
	LoadHighScore(ctx context.Context) (int, error)
	SaveHighScore(ctx context.Context, score int) error
}

package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/engine"
	"svw.info/numbermaster/internal/ports"
)

// Persistence adapts a ports.Storage to best-effort semantics: every failure is
// logged here and surfaces to callers only as "absent", "not saved" or zero.
// There are no retries.
type Persistence struct {
	Storage   ports.Storage
	Validator ports.Validator
	log       *zap.Logger
}

func NewPersistence(st ports.Storage, v ports.Validator, log *zap.Logger) *Persistence {
	if log == nil {
		log = zap.NewNop()
	}
	return &Persistence{Storage: st, Validator: v, log: log.Named("persistence")}
}

// Load returns the saved session, or false when none exists or it cannot be used.
// A record with no active cell left cannot be played and counts as absent.
func (p *Persistence) Load(ctx context.Context, id string) (domain.Snapshot, bool) {
	if p == nil || p.Storage == nil {
		return domain.Snapshot{}, false
	}
	snap, err := p.Storage.LoadSession(ctx, id)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			p.log.Error("Failed to load game state", zap.String("session", id), zap.Error(err))
		}
		return domain.Snapshot{}, false
	}
	if p.Validator != nil {
		if ok, bad, err := p.Validator.Validate(ctx, snap); !ok {
			p.log.Warn("Discarding malformed game state",
				zap.String("session", id),
				zap.Error(err),
				zap.Int("badCells", len(bad)))
			return domain.Snapshot{}, false
		}
	}
	if engine.IsCleared(snap.Grid) {
		p.log.Info("Discarding finished game state", zap.String("session", id), zap.Int("level", snap.Level))
		return domain.Snapshot{}, false
	}
	return *snap, true
}

// Save persists the snapshot and reports whether it was written.
func (p *Persistence) Save(ctx context.Context, id string, s domain.Snapshot) bool {
	if p == nil || p.Storage == nil {
		return false
	}
	if err := p.Storage.SaveSession(ctx, id, &s); err != nil {
		p.log.Error("Failed to save game state", zap.String("session", id), zap.Error(err))
		return false
	}
	return true
}

// Clear removes any saved session.
func (p *Persistence) Clear(ctx context.Context, id string) bool {
	if p == nil || p.Storage == nil {
		return false
	}
	if err := p.Storage.ClearSession(ctx, id); err != nil {
		p.log.Error("Failed to clear game state", zap.String("session", id), zap.Error(err))
		return false
	}
	return true
}

// LoadHighScore returns the stored best score, 0 when missing or unreadable.
func (p *Persistence) LoadHighScore(ctx context.Context) int {
	if p == nil || p.Storage == nil {
		return 0
	}
	hs, err := p.Storage.LoadHighScore(ctx)
	if err != nil {
		p.log.Error("Failed to load high score", zap.Error(err))
		return 0
	}
	return hs
}

func (p *Persistence) SaveHighScore(ctx context.Context, score int) bool {
	if p == nil || p.Storage == nil {
		return false
	}
	if err := p.Storage.SaveHighScore(ctx, score); err != nil {
		p.log.Error("Failed to save high score", zap.Int("score", score), zap.Error(err))
		return false
	}
	return true
}

// List returns saved sessions; errors are logged and yield an empty list.
func (p *Persistence) List(ctx context.Context) []domain.SessionMeta {
	if p == nil || p.Storage == nil {
		return nil
	}
	list, err := p.Storage.List(ctx)
	if err != nil {
		p.log.Error("Failed to list sessions", zap.Error(err))
		return nil
	}
	return list
}

package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"svw.info/numbermaster/internal/domain"
)

type memEntry struct {
	snap      domain.Snapshot
	updatedAt int64
}

// Memory keeps sessions in process. Nothing survives a restart.
type Memory struct {
	mu        sync.RWMutex
	sessions  map[string]memEntry
	highScore int
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]memEntry)}
}

func (m *Memory) SaveSession(ctx context.Context, id string, s *domain.Snapshot) error {
	if err := checkID(id); err != nil {
		return err
	}
	if s == nil {
		return errors.New("invalid session: nil snapshot")
	}
	m.mu.Lock()
	m.sessions[id] = memEntry{snap: s.Clone(), updatedAt: time.Now().UnixNano()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadSession(ctx context.Context, id string) (*domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := e.snap.Clone()
	return &out, nil
}

func (m *Memory) ClearSession(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context) ([]domain.SessionMeta, error) {
	m.mu.RLock()
	out := make([]domain.SessionMeta, 0, len(m.sessions))
	for id, e := range m.sessions {
		out = append(out, domain.SessionMeta{ID: id, Score: e.snap.Score, Level: e.snap.Level, UpdatedAt: e.updatedAt})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out, nil
}

func (m *Memory) LoadHighScore(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.highScore, nil
}

func (m *Memory) SaveHighScore(ctx context.Context, score int) error {
	m.mu.Lock()
	m.highScore = score
	m.mu.Unlock()
	return nil
}

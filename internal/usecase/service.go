package usecase

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/engine"
	"svw.info/numbermaster/internal/ports"
)

var (
	ErrNotConfigured  = errors.New("usecase dependency not configured")
	ErrUnknownSession = errors.New("unknown session")
	ErrOutOfRange     = errors.New("out of range")
)

// Options tune session hosting.
type Options struct {
	StartLevel int
	// Autosave persists after every mutation instead of only on suspend.
	Autosave bool
}

// State is what presenters read back after an operation.
type State struct {
	ID        string      `json:"id"`
	Grid      domain.Grid `json:"grid"`
	Score     int         `json:"score"`
	Level     int         `json:"level"`
	HighScore int         `json:"highScore"`
	Won       bool        `json:"won"`
}

// MatchResult reports the outcome of a match attempt.
type MatchResult struct {
	Matched bool  `json:"matched"`
	LevelUp bool  `json:"levelUp"`
	State   State `json:"state"`
}

type session struct {
	mu   sync.Mutex
	id   string
	game *engine.Game
}

// Service hosts game sessions. Each session is mutated by one operation at a time;
// snapshots for persistence are only taken between completed operations.
type Service struct {
	Generator   ports.Generator
	Hinter      ports.Hinter
	Solver      ports.Solver
	Persistence *Persistence
	Options     Options

	log *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session

	hsMu      sync.Mutex
	hsLoaded  bool
	highScore int
}

func NewService(g ports.Generator, h ports.Hinter, s ports.Solver, p *Persistence, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	opts.StartLevel = min(max(opts.StartLevel, 1), domain.MaxLevel)
	var gen ports.Generator
	if g != nil {
		gen = &lockedGenerator{g: g}
	}
	return &Service{
		Generator:   gen,
		Hinter:      h,
		Solver:      s,
		Persistence: p,
		Options:     opts,
		log:         log.Named("session"),
		sessions:    make(map[string]*session),
	}
}

// lockedGenerator lets sessions on different goroutines share one random source.
type lockedGenerator struct {
	mu sync.Mutex
	g  ports.Generator
}

func (l *lockedGenerator) Layout(level int) domain.Grid {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Layout(level)
}

// Open resumes the saved session for id, or deals a new one when nothing usable is saved.
// An already open session is returned as is.
func (u *Service) Open(ctx context.Context, id string) (State, error) {
	if u.Generator == nil {
		return State{}, ErrNotConfigured
	}
	u.mu.Lock()
	s, ok := u.sessions[id]
	if !ok {
		s = &session{id: id}
		u.sessions[id] = s
	}
	u.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		if snap, found := u.Persistence.Load(ctx, id); found {
			s.game = engine.Restore(snap, u.Generator)
			u.log.Info("Resumed session", zap.String("session", id), zap.Int("level", snap.Level), zap.Int("score", snap.Score))
		} else {
			s.game = engine.New(u.Options.StartLevel, u.Generator)
			u.log.Info("Started session", zap.String("session", id), zap.Int("level", u.Options.StartLevel))
		}
	}
	return u.stateLocked(ctx, s), nil
}

// NewGame discards the session's progress and its saved record and deals a fresh grid.
// level < 1 uses the configured start level; level > domain.MaxLevel is ErrOutOfRange.
func (u *Service) NewGame(ctx context.Context, id string, level int) (State, error) {
	if u.Generator == nil {
		return State{}, ErrNotConfigured
	}
	if level > domain.MaxLevel {
		return State{}, ErrOutOfRange
	}
	if level < 1 {
		level = u.Options.StartLevel
	}
	u.mu.Lock()
	s, ok := u.sessions[id]
	if !ok {
		s = &session{id: id}
		u.sessions[id] = s
	}
	u.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	u.Persistence.Clear(ctx, id)
	s.game = engine.New(level, u.Generator)
	u.log.Info("New game", zap.String("session", id), zap.Int("level", level))
	u.afterMutation(ctx, s)
	return u.stateLocked(ctx, s), nil
}

// Match attempts to pair a and b. A rejected pair is not an error.
func (u *Service) Match(ctx context.Context, id string, a, b domain.Position) (MatchResult, error) {
	s, err := u.lookup(id)
	if err != nil {
		return MatchResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.game.InBounds(a) || !s.game.InBounds(b) {
		return MatchResult{}, ErrOutOfRange
	}
	level := s.game.Level()
	if !s.game.AttemptToMatch(a, b) {
		u.log.Debug("Rejected pair", zap.String("session", id), zap.Any("a", a), zap.Any("b", b))
		return MatchResult{State: u.stateLocked(ctx, s)}, nil
	}
	res := MatchResult{Matched: true, LevelUp: s.game.Level() > level}
	if res.LevelUp {
		u.log.Info("Stage cleared", zap.String("session", id), zap.Int("level", s.game.Level()), zap.Int("score", s.game.Score()))
	}
	u.afterMutation(ctx, s)
	res.State = u.stateLocked(ctx, s)
	return res, nil
}

// AddMore duplicates the active numbers onto the end of the grid.
func (u *Service) AddMore(ctx context.Context, id string) (State, error) {
	s, err := u.lookup(id)
	if err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game.AddMoreNumbers()
	u.afterMutation(ctx, s)
	return u.stateLocked(ctx, s), nil
}

// State returns the current session state without changing it.
func (u *Service) State(ctx context.Context, id string) (State, error) {
	s, err := u.lookup(id)
	if err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return u.stateLocked(ctx, s), nil
}

func (u *Service) Hint(ctx context.Context, id string) (domain.Hint, bool, error) {
	if u.Hinter == nil {
		return domain.Hint{}, false, ErrNotConfigured
	}
	grid, err := u.grid(id)
	if err != nil {
		return domain.Hint{}, false, err
	}
	return u.Hinter.Hint(ctx, grid)
}

// Solve searches for a clearing sequence on a copy of the session's grid.
func (u *Service) Solve(ctx context.Context, id string) ([]domain.Pair, ports.Stats, error) {
	if u.Solver == nil {
		return nil, ports.Stats{}, ErrNotConfigured
	}
	grid, err := u.grid(id)
	if err != nil {
		return nil, ports.Stats{}, err
	}
	return u.Solver.Solve(ctx, grid)
}

// Suspend saves the session unless it is won. It reports whether a record was written.
// Progress since the last successful save is lost if this fails.
func (u *Service) Suspend(ctx context.Context, id string) (bool, error) {
	s, err := u.lookup(id)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return u.suspendLocked(ctx, s), nil
}

// SuspendAll suspends every open session and returns how many were saved.
func (u *Service) SuspendAll(ctx context.Context) int {
	u.mu.Lock()
	list := make([]*session, 0, len(u.sessions))
	for _, s := range u.sessions {
		list = append(list, s)
	}
	u.mu.Unlock()

	saved := 0
	for _, s := range list {
		s.mu.Lock()
		if s.game != nil && u.suspendLocked(ctx, s) {
			saved++
		}
		s.mu.Unlock()
	}
	return saved
}

// Close suspends the session and forgets it. It reports whether a record was written.
// A later Open resumes from that record.
func (u *Service) Close(ctx context.Context, id string) (bool, error) {
	saved, err := u.Suspend(ctx, id)
	if err != nil {
		return false, err
	}
	u.mu.Lock()
	delete(u.sessions, id)
	u.mu.Unlock()
	return saved, nil
}

// HighScore returns the best score seen so far.
func (u *Service) HighScore(ctx context.Context) int {
	u.hsMu.Lock()
	defer u.hsMu.Unlock()
	u.loadHighScoreLocked(ctx)
	return u.highScore
}

// List returns saved sessions.
func (u *Service) List(ctx context.Context) []domain.SessionMeta {
	return u.Persistence.List(ctx)
}

func (u *Service) lookup(id string) (*session, error) {
	u.mu.Lock()
	s, ok := u.sessions[id]
	u.mu.Unlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	s.mu.Lock()
	ready := s.game != nil
	s.mu.Unlock()
	if !ready {
		return nil, ErrUnknownSession
	}
	return s, nil
}

func (u *Service) grid(id string) (domain.Grid, error) {
	s, err := u.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Grid(), nil
}

// afterMutation runs the host bookkeeping: high score, won cleanup, autosave.
func (u *Service) afterMutation(ctx context.Context, s *session) {
	score := s.game.Score()
	u.hsMu.Lock()
	u.loadHighScoreLocked(ctx)
	if score > u.highScore {
		u.highScore = score
		u.Persistence.SaveHighScore(ctx, score)
	}
	u.hsMu.Unlock()

	if s.game.IsWon() {
		u.Persistence.Clear(ctx, s.id)
		return
	}
	if u.Options.Autosave {
		u.Persistence.Save(ctx, s.id, s.game.Snapshot())
	}
}

func (u *Service) suspendLocked(ctx context.Context, s *session) bool {
	if s.game.IsWon() {
		return false
	}
	ok := u.Persistence.Save(ctx, s.id, s.game.Snapshot())
	if ok {
		u.log.Debug("Suspended session", zap.String("session", s.id))
	}
	return ok
}

func (u *Service) loadHighScoreLocked(ctx context.Context) {
	if u.hsLoaded {
		return
	}
	u.highScore = u.Persistence.LoadHighScore(ctx)
	u.hsLoaded = true
}

func (u *Service) stateLocked(ctx context.Context, s *session) State {
	return State{
		ID:        s.id,
		Grid:      s.game.Grid(),
		Score:     s.game.Score(),
		Level:     s.game.Level(),
		HighScore: u.HighScore(ctx),
		Won:       s.game.IsWon(),
	}
}

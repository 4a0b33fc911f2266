package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/generator"
	"svw.info/numbermaster/internal/hint"
	"svw.info/numbermaster/internal/infrastructure/storage"
	"svw.info/numbermaster/internal/solver"
	"svw.info/numbermaster/internal/validator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func row(vals ...int) []int {
	out := make([]int, domain.Columns)
	copy(out, vals)
	return out
}

func pos(r, c int) domain.Position { return domain.Position{Row: r, Col: c} }

func newService(t *testing.T, st *storage.Memory, opts Options) *Service {
	t.Helper()
	p := NewPersistence(st, validator.New(), zap.NewNop())
	return NewService(generator.NewRandomGenerator(1), hint.NewFirstPair(), solver.NewBacktrackingSolver(0), p, zap.NewNop(), opts)
}

// seed stores a saved session so Open resumes it.
func seed(t *testing.T, st *storage.Memory, id string, s domain.Snapshot) {
	t.Helper()
	require.NoError(t, st.SaveSession(context.Background(), id, &s))
}

func TestOpenStartsFreshWithoutSave(t *testing.T) {
	svc := newService(t, storage.NewMemory(), Options{StartLevel: 2})
	st, err := svc.Open(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", st.ID)
	assert.Equal(t, 2, st.Level)
	assert.Zero(t, st.Score)
	assert.False(t, st.Won)
	assert.Len(t, st.Grid, 3)
}

func TestOpenResumesSavedSession(t *testing.T) {
	mem := storage.NewMemory()
	saved := domain.Snapshot{Grid: domain.Grid{row(5, 5, 3)}, Score: 20, Level: 4}
	seed(t, mem, "p1", saved)

	svc := newService(t, mem, Options{})
	st, err := svc.Open(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, saved.Grid, st.Grid)
	assert.Equal(t, 20, st.Score)
	assert.Equal(t, 4, st.Level)
}

func TestOpenIgnoresMalformedSave(t *testing.T) {
	mem := storage.NewMemory()
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{{1, 2}}, Score: 20, Level: 4})

	svc := newService(t, mem, Options{})
	st, err := svc.Open(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Level)
	assert.Zero(t, st.Score)
}

func TestOpenTwiceKeepsProgress(t *testing.T) {
	mem := storage.NewMemory()
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(5, 5, 3)}, Level: 1})
	svc := newService(t, mem, Options{})
	ctx := context.Background()

	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)
	_, err = svc.Match(ctx, "p1", pos(0, 0), pos(0, 1))
	require.NoError(t, err)

	st, err := svc.Open(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, st.Score)
}

func TestMatchFlow(t *testing.T) {
	mem := storage.NewMemory()
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(5, 5, 3), row(4, 6)}, Level: 1})
	svc := newService(t, mem, Options{})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	res, err := svc.Match(ctx, "p1", pos(0, 0), pos(0, 2))
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Zero(t, res.State.Score)

	res, err = svc.Match(ctx, "p1", pos(0, 0), pos(0, 1))
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.False(t, res.LevelUp)
	assert.Equal(t, 4, res.State.Score)
	assert.Equal(t, 4, res.State.HighScore)
	assert.Equal(t, domain.Grid{row(-5, -5, 3), row(4, 6)}, res.State.Grid)

	hs, err := mem.LoadHighScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, hs)
}

func TestMatchOutOfRange(t *testing.T) {
	svc := newService(t, storage.NewMemory(), Options{})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	_, err = svc.Match(ctx, "p1", pos(0, 0), pos(40, 0))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = svc.Match(ctx, "p1", pos(-1, 0), pos(0, 0))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = svc.Match(ctx, "p1", pos(0, 9), pos(0, 0))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestUnknownSession(t *testing.T) {
	svc := newService(t, storage.NewMemory(), Options{})
	ctx := context.Background()

	_, err := svc.Match(ctx, "ghost", pos(0, 0), pos(0, 1))
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = svc.AddMore(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = svc.State(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, _, err = svc.Hint(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = svc.Suspend(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestNotConfigured(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, Options{})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, _, err = svc.Hint(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, _, err = svc.Solve(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLevelUpAutosavesNextStage(t *testing.T) {
	mem := storage.NewMemory()
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(3, 7)}, Score: 8, Level: 1})
	svc := newService(t, mem, Options{Autosave: true})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	res, err := svc.Match(ctx, "p1", pos(0, 0), pos(0, 1))
	require.NoError(t, err)
	assert.True(t, res.LevelUp)
	assert.Equal(t, 2, res.State.Level)
	assert.Equal(t, 12, res.State.Score)
	assert.False(t, res.State.Won)

	saved, err := mem.LoadSession(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Level)
	assert.Equal(t, 12, saved.Score)
}

// newFixedService deals the given layouts in order.
func newFixedService(t *testing.T, st *storage.Memory, opts Options, layouts ...domain.Grid) *Service {
	t.Helper()
	p := NewPersistence(st, validator.New(), zap.NewNop())
	return NewService(&generator.Fixed{Layouts: layouts}, hint.NewFirstPair(), solver.NewBacktrackingSolver(0), p, zap.NewNop(), opts)
}

func TestWonSessionClearsSavedRecord(t *testing.T) {
	mem := storage.NewMemory()
	svc := newFixedService(t, mem, Options{Autosave: true}, domain.Grid{row(-2, -8)})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)
	// a record left over from an earlier save
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(2, 8)}, Score: 4, Level: 3})

	st, err := svc.AddMore(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, st.Won)
	_, err = mem.LoadSession(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAutosaveAfterMutation(t *testing.T) {
	mem := storage.NewMemory()
	svc := newService(t, mem, Options{Autosave: true})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	_, err = mem.LoadSession(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrNotFound, "open alone does not save")

	st, err := svc.AddMore(ctx, "p1")
	require.NoError(t, err)
	saved, err := mem.LoadSession(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, st.Grid, saved.Grid)
}

func TestSuspendSavesUnlessWon(t *testing.T) {
	mem := storage.NewMemory()
	svc := newService(t, mem, Options{})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	ok, err := svc.Suspend(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	// a won session is never written back
	won := storage.NewMemory()
	svc = newFixedService(t, won, Options{}, domain.Grid{row(-1, -9)})
	st, err := svc.Open(ctx, "p2")
	require.NoError(t, err)
	require.True(t, st.Won)

	ok, err = svc.Suspend(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = won.LoadSession(ctx, "p2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSuspendAllAndClose(t *testing.T) {
	mem := storage.NewMemory()
	svc := newService(t, mem, Options{})
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Open(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, svc.SuspendAll(ctx))
	assert.Len(t, svc.List(ctx), 3)

	saved, err := svc.Close(ctx, "a")
	require.NoError(t, err)
	assert.True(t, saved)
	_, err = svc.State(ctx, "a")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestCloseEvictsAndOpenResumes(t *testing.T) {
	mem := storage.NewMemory()
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(5, 5, 3)}, Level: 2})
	svc := newService(t, mem, Options{})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)
	_, err = svc.Match(ctx, "p1", pos(0, 0), pos(0, 1))
	require.NoError(t, err)

	saved, err := svc.Close(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, saved)
	svc.mu.Lock()
	assert.Empty(t, svc.sessions)
	svc.mu.Unlock()

	st, err := svc.Open(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, st.Score)
	assert.Equal(t, 2, st.Level)

	_, err = svc.Close(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestNewGameRejectsLevelAboveMax(t *testing.T) {
	svc := newService(t, storage.NewMemory(), Options{})
	ctx := context.Background()
	for _, level := range []int{domain.MaxLevel + 1, math.MaxInt - 6, math.MaxInt} {
		_, err := svc.NewGame(ctx, "p1", level)
		assert.ErrorIs(t, err, ErrOutOfRange, "level %d", level)
	}
	_, err := svc.State(ctx, "p1")
	assert.ErrorIs(t, err, ErrUnknownSession, "a rejected level opens no session")

	st, err := svc.NewGame(ctx, "p1", domain.MaxLevel)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxLevel, st.Level)
	assert.Equal(t, generator.CellCount(domain.MaxLevel), countActive(st.Grid))
}

func TestStartLevelIsClamped(t *testing.T) {
	svc := newService(t, storage.NewMemory(), Options{StartLevel: domain.MaxLevel * 10})
	st, err := svc.Open(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.MaxLevel, st.Level)
}

func TestOpenDiscardsFinishedSave(t *testing.T) {
	for name, grid := range map[string]domain.Grid{
		"all matched": {row(-1, -9)},
		"no rows":     {},
	} {
		t.Run(name, func(t *testing.T) {
			mem := storage.NewMemory()
			seed(t, mem, "p1", domain.Snapshot{Grid: grid, Score: 40, Level: 7})
			svc := newService(t, mem, Options{StartLevel: 1})
			st, err := svc.Open(context.Background(), "p1")
			require.NoError(t, err)
			assert.False(t, st.Won)
			assert.Equal(t, 1, st.Level)
			assert.Zero(t, st.Score)
			assert.Equal(t, generator.CellCount(1), countActive(st.Grid))
		})
	}
}

func TestNewGameResets(t *testing.T) {
	mem := storage.NewMemory()
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(5, 5, 3)}, Score: 40, Level: 6})
	svc := newService(t, mem, Options{StartLevel: 1})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	st, err := svc.NewGame(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Level)
	assert.Zero(t, st.Score)
	_, err = mem.LoadSession(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	st, err = svc.NewGame(ctx, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Level)
	assert.Equal(t, 22, countActive(st.Grid))
}

func TestHighScoreOnlyRises(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.SaveHighScore(context.Background(), 100))
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(5, 5, 3)}, Level: 1})
	svc := newService(t, mem, Options{})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	res, err := svc.Match(ctx, "p1", pos(0, 0), pos(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 100, res.State.HighScore)
	assert.Equal(t, 100, svc.HighScore(ctx))
}

func TestHintAndSolve(t *testing.T) {
	mem := storage.NewMemory()
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(2, 4, 6, 8)}, Level: 1})
	svc := newService(t, mem, Options{})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	h, ok, err := svc.Hint(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []domain.Position{pos(0, 0), pos(0, 3)}, h.Cells)

	moves, st, err := svc.Solve(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, moves, 2)
	assert.Positive(t, st.Nodes)

	// solving never touches the session
	state, err := svc.State(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, state.Score)
}

func TestConcurrentMatchesAreSerialized(t *testing.T) {
	mem := storage.NewMemory()
	seed(t, mem, "p1", domain.Snapshot{Grid: domain.Grid{row(5, 5, 3), row(1, 2)}, Level: 1})
	svc := newService(t, mem, Options{Autosave: true})
	ctx := context.Background()
	_, err := svc.Open(ctx, "p1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Match(ctx, "p1", pos(0, 0), pos(0, 1))
			if err == nil {
				results <- res.Matched
			}
		}()
	}
	wg.Wait()
	close(results)

	matched := 0
	for ok := range results {
		if ok {
			matched++
		}
	}
	assert.Equal(t, 1, matched)
	st, err := svc.State(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, st.Score)
}

type failingStorage struct{ *storage.Memory }

var errDisk = errors.New("disk on fire")

func (f *failingStorage) SaveSession(context.Context, string, *domain.Snapshot) error {
	return errDisk
}

func (f *failingStorage) LoadSession(context.Context, string) (*domain.Snapshot, error) {
	return nil, errDisk
}

func (f *failingStorage) LoadHighScore(context.Context) (int, error) { return 0, errDisk }

func TestPersistenceFailuresAreContained(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewPersistence(&failingStorage{Memory: storage.NewMemory()}, validator.New(), zap.New(core))
	ctx := context.Background()

	_, found := p.Load(ctx, "p1")
	assert.False(t, found)
	assert.False(t, p.Save(ctx, "p1", domain.Snapshot{Level: 1}))
	assert.Zero(t, p.LoadHighScore(ctx))

	assert.Equal(t, 1, logs.FilterMessage("Failed to load game state").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to save game state").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to load high score").Len())

	svc := NewService(generator.NewRandomGenerator(3), nil, nil, p, zap.NewNop(), Options{})
	st, err := svc.Open(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Level)
	ok, err := svc.Suspend(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistenceMissingIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewPersistence(storage.NewMemory(), validator.New(), zap.New(core))
	_, found := p.Load(context.Background(), "nobody")
	assert.False(t, found)
	assert.Zero(t, logs.Len())
}

func TestPersistenceNil(t *testing.T) {
	var p *Persistence
	ctx := context.Background()
	_, found := p.Load(ctx, "x")
	assert.False(t, found)
	assert.False(t, p.Save(ctx, "x", domain.Snapshot{}))
	assert.False(t, p.Clear(ctx, "x"))
	assert.Zero(t, p.LoadHighScore(ctx))
	assert.False(t, p.SaveHighScore(ctx, 1))
	assert.Nil(t, p.List(ctx))
}

func countActive(g domain.Grid) int {
	n := 0
	for _, r := range g {
		for _, v := range r {
			if v > 0 {
				n++
			}
		}
	}
	return n
}

package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/generator"
	"svw.info/numbermaster/internal/hint"
	"svw.info/numbermaster/internal/infrastructure/storage"
	"svw.info/numbermaster/internal/solver"
	"svw.info/numbermaster/internal/usecase"
	"svw.info/numbermaster/internal/validator"
)

func row(vals ...int) []int {
	out := make([]int, domain.Columns)
	copy(out, vals)
	return out
}

func newModel(t *testing.T, layouts ...domain.Grid) (Model, *storage.Memory) {
	t.Helper()
	if len(layouts) == 0 {
		layouts = []domain.Grid{{row(5, 5, 3, 7, 1, 9, 2, 8, 6), row(4, 6, 4)}}
	}
	mem := storage.NewMemory()
	p := usecase.NewPersistence(mem, validator.New(), zap.NewNop())
	svc := usecase.NewService(&generator.Fixed{Layouts: layouts}, hint.NewFirstPair(),
		solver.NewBacktrackingSolver(0), p, zap.NewNop(), usecase.Options{StartLevel: 1})
	m, err := New(context.Background(), svc, "default")
	require.NoError(t, err)
	return m, mem
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	right = tea.KeyMsg{Type: tea.KeyRight}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	left  = tea.KeyMsg{Type: tea.KeyLeft}
)

// press feeds keys in order and returns the model and the last command.
func press(t *testing.T, m Model, keys ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func TestCursorMovementStaysOnGrid(t *testing.T) {
	m, _ := newModel(t)
	assert.Equal(t, domain.Position{}, m.Cursor())

	m, _ = press(t, m, left, up)
	assert.Equal(t, domain.Position{}, m.Cursor())

	m, _ = press(t, m, right, runes("l"), down)
	assert.Equal(t, domain.Position{Row: 1, Col: 2}, m.Cursor())

	m, _ = press(t, m, down, runes("j"))
	assert.Equal(t, domain.Position{Row: 1, Col: 2}, m.Cursor())

	for i := 0; i < 20; i++ {
		m, _ = press(t, m, right)
	}
	assert.Equal(t, domain.Position{Row: 1, Col: domain.Columns - 1}, m.Cursor())

	m, _ = press(t, m, runes("k"), runes("h"))
	assert.Equal(t, domain.Position{Row: 0, Col: domain.Columns - 2}, m.Cursor())
}

func TestSelectAndDeselect(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(t, m, enter)
	require.NotNil(t, m.Selected())
	assert.Equal(t, domain.Position{}, *m.Selected())

	m, _ = press(t, m, enter)
	assert.Nil(t, m.Selected(), "selecting the same cell again deselects")

	m, _ = press(t, m, runes(" "))
	require.NotNil(t, m.Selected())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.Selected())
}

func TestMatchUpdatesScoreLine(t *testing.T) {
	m, _ := newModel(t)
	assert.Contains(t, m.View(), "Score 0")

	m, cmd := press(t, m, enter, right, enter)
	assert.Nil(t, cmd)
	assert.Nil(t, m.Selected())
	assert.Equal(t, 4, m.Score())
	assert.Contains(t, m.View(), "Score 4")
	assert.Contains(t, m.View(), "+4")
}

func TestMatchedCellCannotBeSelected(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(t, m, enter, right, enter)
	m, _ = press(t, m, enter)
	assert.Nil(t, m.Selected())
}

func TestInvalidPairFlashes(t *testing.T) {
	m, _ := newModel(t)
	// 5 and 3 sum to 8
	m, cmd := press(t, m, right, enter, right, enter)
	require.NotNil(t, cmd)
	assert.Zero(t, m.Score())
	assert.Equal(t, markInvalid, m.kind)
	assert.Len(t, m.marks, 2)
	assert.Contains(t, m.View(), "don't match")

	// a stale flash does not clear a newer one
	m, _ = press(t, m, flashDoneMsg{seq: m.flashSeq - 1})
	assert.Len(t, m.marks, 2)

	m, _ = press(t, m, flashDoneMsg{seq: m.flashSeq})
	assert.Empty(t, m.marks)
}

func TestLevelUp(t *testing.T) {
	next := domain.Grid{row(2, 8)}
	m, _ := newModel(t, domain.Grid{row(1, 9)}, next)
	m, _ = press(t, m, enter, right, enter)
	assert.Equal(t, 2, m.Level())
	assert.Equal(t, domain.Position{}, m.Cursor())
	assert.Contains(t, m.View(), "Level 2!")
}

func TestHintMarksPair(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(t, m, runes("?"))
	assert.Equal(t, markHint, m.kind)
	assert.Equal(t, []domain.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}}, m.marks)
	assert.Contains(t, m.View(), "Pair: 5 and 5")
}

func TestHintWhenStuck(t *testing.T) {
	m, _ := newModel(t, domain.Grid{row(1, 2)})
	m, _ = press(t, m, runes("?"))
	assert.Empty(t, m.marks)
	assert.Contains(t, m.View(), "No pairs left")
}

func TestAddAndNewGame(t *testing.T) {
	m, _ := newModel(t, domain.Grid{row(1, 2)})
	m, _ = press(t, m, runes("a"))
	assert.Equal(t, row(1, 2, 1, 2), []int(m.state.Grid[0]))

	m, _ = press(t, m, right, right, runes("n"))
	assert.Equal(t, domain.Position{}, m.Cursor())
	assert.Equal(t, row(1, 2), []int(m.state.Grid[0]))
}

func TestQuitSuspendsSession(t *testing.T) {
	m, mem := newModel(t)
	m, _ = press(t, m, enter, right, enter)
	m, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Game saved. Bye!\n", m.View())

	saved, err := mem.LoadSession(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Score)
}

func TestHelpToggle(t *testing.T) {
	m, _ := newModel(t)
	assert.False(t, m.help.ShowAll)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "deselect")
}

// Package tui is the terminal front end: a Bubble Tea program that plays one
// session of the grid engine through the usecase layer.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/usecase"
)

const flashDuration = 600 * time.Millisecond

type markKind int

const (
	markNone markKind = iota
	markHint
	markInvalid
)

// flashDoneMsg clears the marks set by flash number seq.
type flashDoneMsg struct{ seq int }

type Model struct {
	ctx context.Context
	svc *usecase.Service
	id  string

	state    usecase.State
	cursor   domain.Position
	selected *domain.Position

	marks    []domain.Position
	kind     markKind
	flashSeq int

	message  string
	err      error
	quitting bool

	keys   keyMap
	help   help.Model
	styles Styles
}

// New opens (or resumes) session id and returns a model positioned on the first cell.
func New(ctx context.Context, svc *usecase.Service, id string) (Model, error) {
	st, err := svc.Open(ctx, id)
	if err != nil {
		return Model{}, fmt.Errorf("failed to open session: %w", err)
	}
	return Model{
		ctx:    ctx,
		svc:    svc,
		id:     id,
		state:  st,
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: DefaultStyles(),
	}, nil
}

// Run plays session id until the player quits or ctx is done.
func Run(ctx context.Context, svc *usecase.Service, id string) error {
	m, err := New(ctx, svc, id)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		// suspend on abnormal exit too; a clean quit already did
		if _, serr := svc.Suspend(context.WithoutCancel(ctx), id); serr != nil {
			return fmt.Errorf("%w (suspend: %v)", err, serr)
		}
	}
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case flashDoneMsg:
		if msg.seq == m.flashSeq && m.kind == markInvalid {
			m.clearMarks()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch {
	case key.Matches(msg, m.keys.Quit):
		if _, err := m.svc.Suspend(m.ctx, m.id); err != nil {
			m.err = err
		}
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.move(-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.move(1, 0)
	case key.Matches(msg, m.keys.Left):
		m.move(0, -1)
	case key.Matches(msg, m.keys.Right):
		m.move(0, 1)
	case key.Matches(msg, m.keys.Deselect):
		m.selected = nil
		m.clearMarks()
	case key.Matches(msg, m.keys.Select):
		return m.selectCell()
	case key.Matches(msg, m.keys.Add):
		st, err := m.svc.AddMore(m.ctx, m.id)
		if err != nil {
			m.err = err
			break
		}
		m.setState(st)
		m.selected = nil
		m.message = "More numbers added."
	case key.Matches(msg, m.keys.Hint):
		h, found, err := m.svc.Hint(m.ctx, m.id)
		if err != nil {
			m.err = err
			break
		}
		if !found {
			m.message = "No pairs left. Press a to add numbers."
			break
		}
		m.marks, m.kind = h.Cells, markHint
		m.message = h.Message
	case key.Matches(msg, m.keys.New):
		st, err := m.svc.NewGame(m.ctx, m.id, 0)
		if err != nil {
			m.err = err
			break
		}
		m.setState(st)
		m.cursor = domain.Position{}
		m.selected = nil
		m.message = "New game."
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) selectCell() (tea.Model, tea.Cmd) {
	if !m.state.Grid.InBounds(m.cursor) || m.state.Grid.At(m.cursor) <= 0 {
		return m, nil
	}
	if m.selected == nil {
		p := m.cursor
		m.selected = &p
		m.clearMarks()
		return m, nil
	}
	if *m.selected == m.cursor {
		m.selected = nil
		return m, nil
	}

	a, b := *m.selected, m.cursor
	m.selected = nil
	res, err := m.svc.Match(m.ctx, m.id, a, b)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.setState(res.State)
	switch {
	case res.LevelUp:
		m.message = fmt.Sprintf("Level %d!", res.State.Level)
		m.cursor = domain.Position{}
	case res.Matched:
		m.message = fmt.Sprintf("+%d", domain.PointsPerMatch)
	default:
		m.message = "Those two don't match."
		m.marks, m.kind = []domain.Position{a, b}, markInvalid
		m.flashSeq++
		seq := m.flashSeq
		return m, tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
	}
	return m, nil
}

func (m *Model) setState(st usecase.State) {
	m.state = st
	m.clearMarks()
	m.move(0, 0)
}

func (m *Model) clearMarks() {
	m.marks, m.kind = nil, markNone
}

// move shifts the cursor and keeps it on the grid.
func (m *Model) move(dr, dc int) {
	rows := len(m.state.Grid)
	m.cursor.Row = clamp(m.cursor.Row+dr, 0, rows-1)
	m.cursor.Col = clamp(m.cursor.Col+dc, 0, domain.Columns-1)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func (m Model) View() string {
	if m.quitting {
		if m.state.Won {
			return "Stage cleared. Bye!\n"
		}
		return "Game saved. Bye!\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Number Master"))
	b.WriteString("  ")
	b.WriteString(m.styles.Stats.Render(fmt.Sprintf("Level %d  Score %d  Best %d", m.state.Level, m.state.Score, m.state.HighScore)))
	b.WriteString("\n")

	rows := make([]string, 0, len(m.state.Grid))
	for r, line := range m.state.Grid {
		cells := make([]string, 0, len(line))
		for c, v := range line {
			cells = append(cells, m.renderCell(domain.Position{Row: r, Col: c}, v))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	b.WriteString(m.styles.Board.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()))
	case m.message != "":
		b.WriteString(m.styles.Message.Render(m.message))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderCell(p domain.Position, v int) string {
	face := " "
	if v != 0 {
		face = strconv.Itoa(domain.Face(v))
	}
	style := m.styles.Empty
	switch domain.StateOf(v) {
	case domain.Active:
		style = m.styles.Active
	case domain.Matched:
		style = m.styles.Matched
	}
	for _, mk := range m.marks {
		if mk == p {
			if m.kind == markInvalid {
				style = m.styles.Invalid
			} else {
				style = m.styles.Hint
			}
		}
	}
	if m.selected != nil && *m.selected == p {
		style = m.styles.Selected
	}
	if m.cursor == p {
		style = m.styles.Cursor
	}
	return style.Render(face)
}

// Score, Level, Cursor and Selected expose the model for callers driving it
// without a terminal.
func (m Model) Score() int                 { return m.state.Score }
func (m Model) Level() int                 { return m.state.Level }
func (m Model) Cursor() domain.Position    { return m.cursor }
func (m Model) Selected() *domain.Position { return m.selected }

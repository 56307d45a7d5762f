package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/render"
	"github.com/san-kum/gompertz/internal/storage"
)

type state int

const (
	stateList state = iota
	stateDetail
)

type view int

const (
	viewFit view = iota
	viewGradNorm
	numViews
)

type model struct {
	store  *storage.Store
	runs   []storage.RunMetadata
	cursor int
	state  state
	view   view

	result *growth.FitResult
	err    error

	width  int
	height int
}

type runsMsg struct {
	runs []storage.RunMetadata
	err  error
}

type detailMsg struct {
	result *growth.FitResult
	err    error
}

func newModel(store *storage.Store) model {
	return model{store: store, width: 80, height: 24}
}

func (m model) Init() tea.Cmd { return m.loadRuns() }

func (m model) loadRuns() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.store.List()
		return runsMsg{runs: runs, err: err}
	}
}

func (m model) loadDetail(id string) tea.Cmd {
	return func() tea.Msg {
		meta, err := m.store.Load(id)
		if err != nil {
			return detailMsg{err: err}
		}
		series, err := m.store.LoadSeries(id)
		if err != nil {
			return detailMsg{err: err}
		}
		return detailMsg{result: storage.Result(meta, series)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case runsMsg:
		m.runs, m.err = msg.runs, msg.err
		if m.cursor >= len(m.runs) {
			m.cursor = max(len(m.runs)-1, 0)
		}
	case detailMsg:
		m.result, m.err = msg.result, msg.err
		if m.err == nil {
			m.state = stateDetail
			m.view = viewFit
		}
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.state == stateDetail {
		switch msg.String() {
		case "q", "esc", "backspace":
			m.state = stateList
			m.result = nil
		case "tab", "v":
			m.view = (m.view + 1) % numViews
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.runs)-1 {
			m.cursor++
		}
	case "r":
		return m, m.loadRuns()
	case "enter", " ":
		if len(m.runs) > 0 {
			return m, m.loadDetail(m.runs[m.cursor].ID)
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.state == stateDetail && m.result != nil {
		return m.detailView()
	}
	return m.listView()
}

func (m model) listView() string {
	var b strings.Builder
	b.WriteString(render.Title.Render("gompertz runs") + "\n\n")
	if m.err != nil {
		b.WriteString(render.Bad.Render(m.err.Error()) + "\n\n")
	}
	if len(m.runs) == 0 {
		b.WriteString(render.Subtle.Render("no stored runs") + "\n")
	}
	for i, r := range m.runs {
		line := fmt.Sprintf("%-32s %-16s %-4s AIC %-10s %s",
			r.ID, r.Model, r.Specimen, formatAIC(r.Stats.AIC), r.Timestamp.Format("2006-01-02 15:04"))
		if i == m.cursor {
			b.WriteString(render.Selected.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + render.KeyHint.Render("↑/↓ move • enter open • r reload • q quit"))
	return b.String()
}

func (m model) detailView() string {
	run := m.runs[m.cursor]
	res := m.result
	chartWidth := max(m.width-20, 20)
	chartHeight := max(m.height/3, 6)

	var chart string
	switch m.view {
	case viewGradNorm:
		if len(res.GradNorms) == 0 {
			chart = render.Subtle.Render("no gradient history for this model")
		} else {
			chart = render.Sparkline(res.GradNorms, "||grad S|| per iteration", chartWidth, chartHeight)
		}
	default:
		chart = render.Console(render.FitFigure(run.Specimen, "x", "y", res), chartWidth, chartHeight)
	}

	return render.FitReport(run.ID, res) + "\n\n" + chart + "\n\n" +
		render.KeyHint.Render("tab switch chart • esc back • ctrl+c quit")
}

func formatAIC(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// Browse runs the interactive run browser over store.
func Browse(store *storage.Store) error {
	p := tea.NewProgram(newModel(store), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

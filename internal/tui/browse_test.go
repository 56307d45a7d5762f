package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/storage"
)

func seededStore(t *testing.T) *storage.Store {
	t.Helper()
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"A", "B"} {
		res := &growth.FitResult{
			Model:     "newton-rate",
			Params:    growth.NewParameterVector([]string{"a", "b"}, []float64{0.2, -0.001}),
			X:         []float64{1, 2, 3, 4},
			Observed:  []float64{0.5, 0.4, 0.3, 0.25},
			Fitted:    []float64{0.5, 0.41, 0.3, 0.24},
			GradNorms: []float64{5, 0.1, 1e-6},
			Stats:     growth.Stats{N: 4, AIC: -20},
		}
		if _, err := st.Save(name, res, nil); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, cmd := m.Update(msg)
	mm := next.(model)
	if cmd != nil {
		if out := cmd(); out != nil {
			if _, quit := out.(tea.QuitMsg); !quit {
				next, _ = mm.Update(out)
				mm = next.(model)
			}
		}
	}
	return mm
}

func TestBrowseListAndDetail(t *testing.T) {
	m := newModel(seededStore(t))
	m = step(t, m, m.Init()())
	if len(m.runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(m.runs))
	}
	if !strings.Contains(m.View(), "newton-rate") {
		t.Errorf("list view missing runs:\n%s", m.View())
	}

	m = step(t, m, key("down"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d", m.cursor)
	}
	m = step(t, m, key("down"))
	if m.cursor != 1 {
		t.Errorf("cursor should stop at the last run, got %d", m.cursor)
	}

	m = step(t, m, key("enter"))
	if m.state != stateDetail || m.result == nil {
		t.Fatalf("expected detail view, state %v err %v", m.state, m.err)
	}
	if !strings.Contains(m.View(), "Exp data") {
		t.Errorf("detail view missing fit chart:\n%s", m.View())
	}

	m = step(t, m, key("tab"))
	if m.view != viewGradNorm {
		t.Errorf("view = %v", m.view)
	}
	if !strings.Contains(m.View(), "grad S") {
		t.Errorf("gradient chart missing:\n%s", m.View())
	}

	m = step(t, m, key("esc"))
	if m.state != stateList {
		t.Errorf("esc should return to the list")
	}
}

func TestBrowseEmptyStore(t *testing.T) {
	m := newModel(storage.New(t.TempDir()))
	m = step(t, m, m.Init()())
	if !strings.Contains(m.View(), "no stored runs") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
	m = step(t, m, key("enter"))
	if m.state != stateList {
		t.Error("enter on an empty list should do nothing")
	}
}

package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/command"
	"github.com/kalambet/helm/internal/nav"
	"github.com/kalambet/helm/internal/recognition"
	"github.com/kalambet/helm/internal/search"
	"github.com/kalambet/helm/internal/session"
)

type fakeBackend struct {
	mu        sync.Mutex
	snap      session.Snapshot
	submitted []string
	err       error
}

func (f *fakeBackend) Snapshot(context.Context) (session.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.err
}

func (f *fakeBackend) Submit(_ context.Context, text string) (session.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, text)
	return session.Outcome{}, f.err
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func loaded(t *testing.T, snap session.Snapshot) Model {
	t.Helper()
	m := NewModel(&fakeBackend{}, catalog.Default())
	m, _ = update(t, m, snapshotMsg{snap})
	return m
}

func TestModel_ConnectingUntilSnapshot(t *testing.T) {
	m := NewModel(&fakeBackend{}, catalog.Default())
	if !strings.Contains(m.View(), "connecting") {
		t.Errorf("View before first snapshot should say connecting:\n%s", m.View())
	}
}

func TestModel_EnterSubmitsTypedCommand(t *testing.T) {
	backend := &fakeBackend{}
	m := NewModel(backend, catalog.Default())

	m = typeText(t, m, "show education")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	msg := cmd()
	if _, ok := msg.(submittedMsg); !ok {
		t.Fatalf("submit produced %T, want submittedMsg", msg)
	}
	if len(backend.submitted) != 1 || backend.submitted[0] != "show education" {
		t.Errorf("submitted = %v", backend.submitted)
	}

	// A successful submit refreshes the snapshot.
	_, cmd = update(t, m, msg)
	if cmd == nil {
		t.Fatal("expected refresh after submit")
	}
	if _, ok := cmd().(snapshotMsg); !ok {
		t.Error("refresh did not produce a snapshot")
	}
}

func TestModel_EmptyEnterIgnored(t *testing.T) {
	backend := &fakeBackend{}
	m := NewModel(backend, catalog.Default())
	m = typeText(t, m, "   ")
	if _, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("blank input should not submit")
	}
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := NewModel(&fakeBackend{}, catalog.Default())
		m, cmd := update(t, m, key)
		if !m.quitting || cmd == nil {
			t.Errorf("%v did not quit", key)
		}
		if m.View() != "" {
			t.Error("View after quit should be empty")
		}
	}

	m := typeText(t, NewModel(&fakeBackend{}, catalog.Default()), "quit")
	if m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}); !m.quitting {
		t.Error(`"quit" did not quit`)
	}
}

func TestModel_BackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	m := NewModel(backend, catalog.Default())

	msg := m.fetch()()
	m, _ = update(t, m, msg)
	if !strings.Contains(m.View(), "connection refused") {
		t.Errorf("View does not show error:\n%s", m.View())
	}

	m, _ = update(t, m, snapshotMsg{session.Snapshot{State: nav.Initial()}})
	if m.err != nil {
		t.Error("snapshot should clear the error")
	}
}

func TestModel_TickRefreshes(t *testing.T) {
	m := NewModel(&fakeBackend{}, catalog.Default())
	if _, cmd := update(t, m, tickMsg(time.Now())); cmd == nil {
		t.Fatal("tick should schedule a fetch and the next tick")
	}
}

func TestView_Sections(t *testing.T) {
	c := catalog.Default()
	tests := []struct {
		name  string
		state nav.State
		want  []string
	}{
		{"expertise list", nav.State{Section: nav.SectionExpertise}, []string{"Expertise", "Machine Learning"}},
		{"expertise area", nav.State{Section: nav.SectionExpertise, ActiveExpertiseID: "ml"}, []string{"ML Model Deployment Platform"}},
		{"education", nav.State{Section: nav.SectionEducation}, []string{"Education", c.Education.Degree}},
		{"all projects", nav.State{Section: nav.SectionProjects}, []string{"Adaptive Learning Platform", "Cloud-Native Web Platform"}},
		{"scoped projects", nav.State{Section: nav.SectionProjects, ActiveExpertiseID: "ai"}, []string{"Projects in", "AI-Powered Content Generator"}},
		{"scoped skills", nav.State{Section: nav.SectionSkills, ActiveExpertiseID: "fullstack"}, []string{"Skills in"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loaded(t, session.Snapshot{State: tt.state, Breadcrumbs: nav.Breadcrumbs(tt.state, c)})
			view := m.View()
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("View missing %q:\n%s", w, view)
				}
			}
		})
	}
}

func TestView_SearchPromptHelpLog(t *testing.T) {
	c := catalog.Default()
	state := nav.State{Section: nav.SectionProjects, SearchQuery: "dashboard", SearchScopeID: "data-science"}
	m := loaded(t, session.Snapshot{
		State:       state,
		Breadcrumbs: nav.Breadcrumbs(state, c),
		Results: []search.Result{{
			AreaID:   "data-science",
			AreaName: "Data Science",
			Project:  catalog.Project{Title: "Predictive Analytics Dashboard"},
		}},
		Voice:       session.Voice{Enabled: true, Session: &recognition.Session{ID: "v1", Status: recognition.StatusListening}},
		Prompt:      &session.Prompt{Text: "Listening...", Hint: `Say "help" for commands`},
		HelpVisible: true,
		Help:        command.Help(c),
		LastCommand: "search in data science dashboard",
		Log:         []session.LogEntry{{Level: session.LevelWarn, Message: "Command not recognized: fly"}},
	})

	view := m.View()
	for _, w := range []string{
		`Search: "dashboard" in Data Science`,
		"Predictive Analytics Dashboard",
		"Listening...",
		"voice listening",
		"stop listening",
		"Command not recognized: fly",
		"search in data science dashboard",
	} {
		if !strings.Contains(view, w) {
			t.Errorf("View missing %q:\n%s", w, view)
		}
	}
}

func TestView_Searching(t *testing.T) {
	state := nav.State{Section: nav.SectionExpertise, SearchQuery: "x"}
	m := loaded(t, session.Snapshot{State: state, Searching: true})
	if !strings.Contains(m.View(), "searching...") {
		t.Errorf("View missing searching indicator:\n%s", m.View())
	}

	m = loaded(t, session.Snapshot{State: state})
	if !strings.Contains(m.View(), "no results") {
		t.Errorf("View missing empty result notice:\n%s", m.View())
	}
}

// Package console is a terminal rendering layer: it shows session snapshots
// and sends typed commands back through the same path speech takes.
package console

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/session"
)

// RefreshInterval is how often the console polls for a fresh snapshot.
const RefreshInterval = 200 * time.Millisecond

const requestTimeout = 5 * time.Second

// Backend is the session the console renders. *session.Session satisfies
// it, as does an HTTP client talking to a running server.
type Backend interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
	Submit(ctx context.Context, text string) (session.Outcome, error)
}

type snapshotMsg struct {
	snap session.Snapshot
}

type submittedMsg struct {
	outcome session.Outcome
}

type errMsg struct {
	err error
}

type tickMsg time.Time

// Model is the bubbletea model for the console.
type Model struct {
	backend Backend
	catalog *catalog.Catalog
	input   textinput.Model
	refresh time.Duration

	snap     session.Snapshot
	loaded   bool
	err      error
	width    int
	quitting bool
}

// NewModel returns a console over backend, rendering content from c.
func NewModel(backend Backend, c *catalog.Catalog) Model {
	in := textinput.New()
	in.Placeholder = `try "show projects in machine learning" or "help"`
	in.CharLimit = 200
	in.Focus()

	return Model{
		backend: backend,
		catalog: c,
		input:   in,
		refresh: RefreshInterval,
		width:   100,
	}
}

// Run starts the console and blocks until the user quits or ctx is done.
func Run(ctx context.Context, backend Backend, c *catalog.Catalog) error {
	p := tea.NewProgram(NewModel(backend, c), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetch(), m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if text == "" {
				return m, nil
			}
			if text == "quit" || text == "exit" {
				m.quitting = true
				return m, tea.Quit
			}
			return m, m.submit(text)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snap = msg.snap
		m.loaded = true
		m.err = nil
		return m, nil

	case submittedMsg:
		m.err = nil
		return m, m.fetch()

	case errMsg:
		m.err = msg.err
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := m.backend.Snapshot(ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{snap}
	}
}

func (m Model) submit(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		out, err := m.backend.Submit(ctx, text)
		if err != nil {
			return errMsg{err}
		}
		return submittedMsg{out}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

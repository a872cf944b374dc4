package session

import (
	"time"

	"github.com/kalambet/helm/internal/command"
	"github.com/kalambet/helm/internal/nav"
	"github.com/kalambet/helm/internal/recognition"
	"github.com/kalambet/helm/internal/search"
)

// Level classifies an activity log entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LogEntry is one line of the activity log shown to the user.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Prompt is a transient notice that disappears at ExpiresAt.
type Prompt struct {
	Text      string    `json:"text"`
	Hint      string    `json:"hint,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Voice describes voice control as the rendering layer sees it.
type Voice struct {
	Enabled bool                 `json:"enabled"`
	Session *recognition.Session `json:"session,omitempty"`
}

// Snapshot is a point-in-time copy of everything the rendering layer shows.
type Snapshot struct {
	State       nav.State           `json:"state"`
	Breadcrumbs []nav.Crumb         `json:"breadcrumbs"`
	Searching   bool                `json:"searching"`
	Results     []search.Result     `json:"results"`
	Voice       Voice               `json:"voice"`
	Prompt      *Prompt             `json:"prompt,omitempty"`
	HelpVisible bool                `json:"help_visible"`
	Help        []command.HelpEntry `json:"help,omitempty"`
	LastCommand string              `json:"last_command,omitempty"`
	Log         []LogEntry          `json:"log"`
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Breadcrumbs: nav.Breadcrumbs(s.state, s.catalog),
		Searching:   s.searching,
		Results:     append([]search.Result{}, s.results...),
		HelpVisible: s.helpVisible,
		LastCommand: s.lastCommand,
		Log:         append([]LogEntry{}, s.log...),
	}
	if rs, ok := s.voice.Current(); ok {
		snap.Voice = Voice{Enabled: true, Session: &rs}
	}
	if s.prompt != nil {
		if s.now().Before(s.prompt.ExpiresAt) {
			p := *s.prompt
			snap.Prompt = &p
		} else {
			s.prompt = nil
		}
	}
	if s.helpVisible {
		snap.Help = command.Help(s.catalog)
	}
	return snap
}

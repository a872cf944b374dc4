package recognition

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/helm/internal/command"
)

// DefaultPromptDuration is how long the "Listening..." prompt stays up.
const DefaultPromptDuration = 3 * time.Second

const (
	promptText = "Listening..."
	promptHint = `Try saying "help" for available commands`
)

// Status is the state of a recognition session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusListening  Status = "listening"
	StatusProcessing Status = "processing"
	StatusError      Status = "error"
)

// Capability is the external speech recogniser. Events it produces are fed
// back through the controller's On* methods tagged with the session id.
type Capability interface {
	Start(sessionID string) error
	Stop(sessionID string) error
}

// NopCapability is used when the host delivers speech events itself.
type NopCapability struct{}

func (NopCapability) Start(string) error { return nil }
func (NopCapability) Stop(string) error  { return nil }

// Session is one voice-control enablement.
type Session struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	Transcript string    `json:"transcript,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// Transition records a status change, reported to observers.
type Transition struct {
	SessionID string
	From      Status
	To        Status
	Reason    string
}

// Handler consumes a recognised utterance: parse, apply, drain effects.
type Handler func(text string)

// Controller drives the recognition lifecycle. It is not safe for
// concurrent use; callers serialise events through a single goroutine.
type Controller struct {
	capability     Capability
	promptDuration time.Duration
	session        *Session
	observers      []func(Transition)
	logger         *slog.Logger
	now            func() time.Time
}

// NewController creates a Controller. A promptDuration <= 0 uses
// DefaultPromptDuration.
func NewController(capability Capability, promptDuration time.Duration) *Controller {
	if capability == nil {
		capability = NopCapability{}
	}
	if promptDuration <= 0 {
		promptDuration = DefaultPromptDuration
	}
	return &Controller{
		capability:     capability,
		promptDuration: promptDuration,
		logger:         slog.Default(),
		now:            time.Now,
	}
}

// Observe registers fn to be called on every status transition.
func (c *Controller) Observe(fn func(Transition)) {
	c.observers = append(c.observers, fn)
}

// Current returns a copy of the active session.
func (c *Controller) Current() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Enabled reports whether voice control is on.
func (c *Controller) Enabled() bool {
	return c.session != nil
}

// Enable creates a session and starts the capability. Enabling twice
// returns the existing session. If the capability fails to start the
// session passes through Error back to Idle and is discarded.
func (c *Controller) Enable() (Session, error) {
	if c.session != nil {
		return *c.session, nil
	}
	s := &Session{ID: uuid.New().String(), Status: StatusIdle, StartedAt: c.now()}
	c.session = s
	c.logger.Info("voice control enabled", "session_id", s.ID)

	if err := c.capability.Start(s.ID); err != nil {
		c.fail(s, err.Error())
		c.session = nil
		return Session{}, fmt.Errorf("starting speech capability: %w", err)
	}
	return *s, nil
}

// Disable tears the session down regardless of its status. Results still
// in flight for it are ignored from here on. It reports whether a session
// was active.
func (c *Controller) Disable() bool {
	s := c.session
	if s == nil {
		return false
	}
	c.session = nil
	if err := c.capability.Stop(s.ID); err != nil {
		c.logger.Warn("stopping speech capability failed", "session_id", s.ID, "error", err)
	}
	c.logger.Info("voice control disabled", "session_id", s.ID)
	return true
}

// OnStart moves Idle to Listening and returns the transient prompt.
func (c *Controller) OnStart(id string) ([]command.Effect, bool) {
	s, ok := c.lookup(id)
	if !ok {
		return nil, false
	}
	c.transition(s, StatusListening, "")
	return []command.Effect{command.ShowPrompt(promptText, promptHint, c.promptDuration)}, true
}

// OnResult moves the session to Processing, runs handle, and returns to
// Idle unless handle disabled voice control. Results are accepted while
// Idle because continuous recognisers re-enter listening on their own.
func (c *Controller) OnResult(id, text string, handle Handler) bool {
	s, ok := c.lookup(id)
	if !ok {
		return false
	}
	s.Transcript = text
	c.transition(s, StatusProcessing, "")

	if handle != nil {
		handle(text)
	}

	if c.session != s {
		return true
	}
	c.transition(s, StatusIdle, "")
	return true
}

// OnEnd returns the session to Idle.
func (c *Controller) OnEnd(id string) bool {
	s, ok := c.lookup(id)
	if !ok {
		return false
	}
	c.transition(s, StatusIdle, "")
	return true
}

// OnError logs the failure and passes the session through Error to Idle;
// the capability may restart on its own.
func (c *Controller) OnError(id, reason string) bool {
	s, ok := c.lookup(id)
	if !ok {
		return false
	}
	c.fail(s, reason)
	return true
}

func (c *Controller) fail(s *Session, reason string) {
	c.logger.Warn("speech recognition error", "session_id", s.ID, "reason", reason)
	s.LastError = reason
	c.transition(s, StatusError, reason)
	c.transition(s, StatusIdle, "acknowledged")
}

func (c *Controller) lookup(id string) (*Session, bool) {
	if c.session == nil || c.session.ID != id {
		c.logger.Debug("ignoring event for inactive recognition session", "session_id", id)
		return nil, false
	}
	return c.session, true
}

func (c *Controller) transition(s *Session, to Status, reason string) {
	from := s.Status
	if from == to {
		return
	}
	s.Status = to
	t := Transition{SessionID: s.ID, From: from, To: to, Reason: reason}
	for _, fn := range c.observers {
		fn(t)
	}
}

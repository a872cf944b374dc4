// Package session runs one interpreter instance: it owns the navigation
// state and the recognition controller, applies intents, and carries out
// the effects they produce. Every mutation happens on the goroutine running
// Run; the exported methods hand work to it and wait.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/command"
	"github.com/kalambet/helm/internal/nav"
	"github.com/kalambet/helm/internal/recognition"
	"github.com/kalambet/helm/internal/search"
)

// ErrClosed is returned by operations on a session whose loop has stopped.
var ErrClosed = errors.New("session closed")

// MaxLogEntries bounds the in-memory activity log.
const MaxLogEntries = 50

// Config wires a Session to its collaborators.
type Config struct {
	Catalog        *catalog.Catalog
	Searcher       search.Searcher
	Capability     recognition.Capability
	PromptDuration time.Duration
	Logger         *slog.Logger
}

// Outcome is what applying one intent did.
type Outcome struct {
	Intent  command.Intent   `json:"intent"`
	Effects []command.Effect `json:"effects"`
	State   nav.State        `json:"state"`
}

// VoiceEvent is a notification from the speech capability.
type VoiceEvent struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"` // "start", "result", "end", "error"
	Text      string `json:"text,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type op struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

type searchOutcome struct {
	seq     uint64
	query   string
	scope   string
	results []search.Result
	err     error
}

// Session is the explicit interpreter session.
type Session struct {
	catalog  *catalog.Catalog
	parser   *command.Parser
	executor *command.Executor
	searcher search.Searcher
	voice    *recognition.Controller
	logger   *slog.Logger
	now      func() time.Time

	ops        chan op
	searchDone chan searchOutcome
	quit       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	searches   sync.WaitGroup

	// Owned by the loop goroutine.
	state        nav.State
	searching    bool
	searchSeq    uint64
	cancelSearch context.CancelFunc
	results      []search.Result
	helpVisible  bool
	prompt       *Prompt
	lastCommand  string
	log          []LogEntry
}

// New creates a Session in the initial state. Call Run to start it.
func New(cfg Config) (*Session, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("session: catalog is required")
	}
	if cfg.Searcher == nil {
		cfg.Searcher = search.NewCatalogSearcher(cfg.Catalog, search.DefaultDelay)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		catalog:    cfg.Catalog,
		parser:     command.NewParser(cfg.Catalog),
		executor:   command.NewExecutor(cfg.Catalog),
		searcher:   cfg.Searcher,
		voice:      recognition.NewController(cfg.Capability, cfg.PromptDuration),
		logger:     logger,
		now:        time.Now,
		ops:        make(chan op),
		searchDone: make(chan searchOutcome),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		state:      nav.Initial(),
	}
	s.voice.Observe(s.onVoiceTransition)
	return s, nil
}

// Run processes operations until ctx is cancelled or Close is called. It
// cancels in-flight searches and waits for them before returning.
func (s *Session) Run(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.searches.Wait()
		close(s.stopped)
	}()

	s.logger.Debug("session loop started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.quit:
			return nil
		case o := <-s.ops:
			o.fn(loopCtx)
			close(o.done)
		case r := <-s.searchDone:
			s.finishSearch(r)
		}
	}
}

// Close stops the loop. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.stopped
}

// do runs fn on the loop goroutine and waits for it to finish. ctx only
// bounds the wait for the loop to accept the op.
func (s *Session) do(ctx context.Context, fn func(ctx context.Context)) error {
	o := op{fn: fn, done: make(chan struct{})}
	select {
	case s.ops <- o:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.quit:
		return ErrClosed
	case <-s.stopped:
		return ErrClosed
	}
	// The loop has taken the op and runs fn to completion; once applied, an
	// op is reported as done even if ctx has since been cancelled.
	<-o.done
	return nil
}

// Dispatch applies an intent directly, bypassing the parser.
func (s *Session) Dispatch(ctx context.Context, in command.Intent) (Outcome, error) {
	var out Outcome
	err := s.do(ctx, func(loopCtx context.Context) {
		s.lastCommand = in.String()
		out = s.apply(loopCtx, in)
	})
	return out, err
}

// Submit parses typed text and applies the resulting intent. Typed input
// takes the same path as recognised speech.
func (s *Session) Submit(ctx context.Context, text string) (Outcome, error) {
	var out Outcome
	err := s.do(ctx, func(loopCtx context.Context) {
		out = s.handleText(loopCtx, text)
	})
	return out, err
}

// EnableVoice starts voice control, or returns the active recognition
// session if it is already on.
func (s *Session) EnableVoice(ctx context.Context) (recognition.Session, error) {
	var (
		rs     recognition.Session
		enable error
	)
	err := s.do(ctx, func(context.Context) {
		rs, enable = s.voice.Enable()
		if enable != nil {
			s.record(LevelError, fmt.Sprintf("voice control unavailable: %v", enable))
		}
	})
	if err != nil {
		return recognition.Session{}, err
	}
	return rs, enable
}

// DisableVoice tears voice control down. It reports whether it was on.
func (s *Session) DisableVoice(ctx context.Context) (bool, error) {
	var was bool
	err := s.do(ctx, func(context.Context) {
		was = s.voice.Disable()
	})
	return was, err
}

// VoiceEvent feeds a capability event to the recognition controller. It
// reports whether the event belonged to the active recognition session.
func (s *Session) VoiceEvent(ctx context.Context, ev VoiceEvent) (bool, error) {
	var accepted bool
	err := s.do(ctx, func(loopCtx context.Context) {
		switch ev.Type {
		case "start":
			var effects []command.Effect
			effects, accepted = s.voice.OnStart(ev.SessionID)
			s.perform(loopCtx, effects)
		case "result":
			accepted = s.voice.OnResult(ev.SessionID, ev.Text, func(text string) {
				s.handleText(loopCtx, text)
			})
		case "end":
			accepted = s.voice.OnEnd(ev.SessionID)
		case "error":
			accepted = s.voice.OnError(ev.SessionID, ev.Reason)
		default:
			s.logger.Warn("unknown voice event type", "type", ev.Type)
		}
	})
	return accepted, err
}

// Snapshot returns a copy of everything the rendering layer shows.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func(context.Context) {
		snap = s.snapshot()
	})
	return snap, err
}

// Catalog returns the catalog the session navigates. It is read-only.
func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Session) handleText(ctx context.Context, text string) Outcome {
	s.lastCommand = text
	in := s.parser.Parse(text)
	s.logger.Debug("parsed command", "text", text, "intent", in.String())
	return s.apply(ctx, in)
}

func (s *Session) apply(ctx context.Context, in command.Intent) Outcome {
	next, effects := s.executor.Apply(s.state, in)
	s.state = next
	if in.Navigates() {
		s.helpVisible = false
	}
	s.perform(ctx, effects)
	return Outcome{Intent: in, Effects: effects, State: s.state}
}

func (s *Session) perform(ctx context.Context, effects []command.Effect) {
	for _, e := range effects {
		switch e.Kind {
		case command.EffectPerformSearch:
			s.startSearch(ctx, e.Query, e.ScopeID)
		case command.EffectDisplayHelp:
			s.helpVisible = true
		case command.EffectDisableVoiceControl:
			s.voice.Disable()
		case command.EffectReportUnrecognized:
			s.logger.Info("unrecognized command", "raw", e.Raw)
			s.record(LevelWarn, fmt.Sprintf("unrecognized command: %q", e.Raw))
		case command.EffectShowPrompt:
			s.prompt = &Prompt{Text: e.Text, Hint: e.Hint, ExpiresAt: s.now().Add(e.Duration)}
		default:
			s.logger.Warn("unhandled effect", "kind", e.Kind.String())
		}
	}
}

func (s *Session) startSearch(ctx context.Context, query, scope string) {
	if s.cancelSearch != nil {
		s.cancelSearch()
	}
	s.searchSeq++
	seq := s.searchSeq
	s.searching = true

	sctx, cancel := context.WithCancel(ctx)
	s.cancelSearch = cancel
	s.searches.Add(1)
	go func() {
		defer s.searches.Done()
		results, err := s.searcher.Search(sctx, query, scope)
		select {
		case s.searchDone <- searchOutcome{seq: seq, query: query, scope: scope, results: results, err: err}:
		case <-sctx.Done():
		}
	}()
}

func (s *Session) finishSearch(r searchOutcome) {
	if r.seq != s.searchSeq || r.query != s.state.SearchQuery || r.scope != s.state.SearchScopeID {
		s.logger.Debug("discarding stale search result", "query", r.query, "scope", r.scope)
		return
	}
	s.searching = false
	if s.cancelSearch != nil {
		s.cancelSearch()
		s.cancelSearch = nil
	}
	if r.err != nil {
		s.logger.Warn("search failed", "query", r.query, "scope", r.scope, "error", r.err)
		s.record(LevelError, fmt.Sprintf("search for %q failed: %v", r.query, r.err))
		s.results = nil
		return
	}
	s.results = r.results
}

func (s *Session) onVoiceTransition(t recognition.Transition) {
	s.logger.Debug("recognition status", "session_id", t.SessionID, "from", t.From, "to", t.To)
	if t.To == recognition.StatusError {
		s.record(LevelError, "speech recognition error: "+t.Reason)
	}
}

func (s *Session) record(level Level, msg string) {
	s.log = append(s.log, LogEntry{Time: s.now(), Level: level, Message: msg})
	if n := len(s.log) - MaxLogEntries; n > 0 {
		s.log = append(s.log[:0:0], s.log[n:]...)
	}
}

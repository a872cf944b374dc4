package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/helm/internal/command"
	"github.com/kalambet/helm/internal/search"
	"github.com/kalambet/helm/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds what the HTTP surface needs.
type Deps struct {
	Session   *session.Session
	Searcher  search.Searcher
	Documents DocumentStore // optional; document routes return 503 when nil
	Token     string
	Logger    *slog.Logger
}

// NewHandler returns the rendering-layer API. Every route except /health
// requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/state", handleState(deps))
		r.Post("/dispatch", handleDispatch(deps))
		r.Post("/commands", handleCommand(deps))
		r.Post("/voice/enable", handleVoiceEnable(deps))
		r.Post("/voice/disable", handleVoiceDisable(deps))
		r.Post("/voice/events", handleVoiceEvent(deps))
		r.Get("/catalog", handleCatalog(deps))
		r.Get("/help", handleHelp(deps))
		r.Get("/search", handleSearch(deps))

		r.Post("/documents", handleCreateDocument(deps))
		r.Get("/documents", handleListDocuments(deps))
		r.Get("/documents/{id}", handleGetDocument(deps))
		r.Delete("/documents/{id}", handleDeleteDocument(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleState(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := deps.Session.Snapshot(r.Context())
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleDispatch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in command.Intent
		if !decodeBody(w, r, &in) {
			return
		}
		out, err := deps.Session.Dispatch(r.Context(), in)
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type commandRequest struct {
	Text string `json:"text"`
}

func handleCommand(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commandRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}
		out, err := deps.Session.Submit(r.Context(), req.Text)
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleVoiceEnable(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := deps.Session.EnableVoice(r.Context())
		if isSessionErr(err) {
			sessionError(w, err)
			return
		}
		if err != nil {
			httpError(w, http.StatusServiceUnavailable, "voice_error", "voice control unavailable: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

func handleVoiceDisable(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		was, err := deps.Session.DisableVoice(r.Context())
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"was_enabled": was})
	}
}

func handleVoiceEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev session.VoiceEvent
		if !decodeBody(w, r, &ev) {
			return
		}
		switch ev.Type {
		case "start", "result", "end", "error":
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown event type %q", ev.Type)
			return
		}
		if ev.SessionID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "session_id is required")
			return
		}
		accepted, err := deps.Session.VoiceEvent(r.Context(), ev)
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"accepted": accepted})
	}
}

func handleCatalog(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Session.Catalog())
	}
}

func handleHelp(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, command.Help(deps.Session.Catalog()))
	}
}

// handleSearch runs a one-off query against the search backend without
// touching the session's navigation state.
func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "q is required")
			return
		}
		results, err := deps.Searcher.Search(r.Context(), q, r.URL.Query().Get("scope"))
		if err != nil {
			deps.Logger.Error("search failed", "query", q, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "search failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeBodyLimit(w, r, maxRequestBodySize, v)
}

func decodeBodyLimit(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func isSessionErr(err error) bool {
	return errors.Is(err, session.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func sessionError(w http.ResponseWriter, err error) {
	httpError(w, http.StatusServiceUnavailable, "session_unavailable", "%v", err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

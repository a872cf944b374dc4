package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/helm/internal/ingest"
	"github.com/kalambet/helm/internal/storage"
)

const maxDocumentBodySize = 10 << 20 // 10MB

// DocumentStore abstracts document persistence for the API layer.
type DocumentStore interface {
	ingest.DocumentStore
	GetDocument(id string) (storage.Document, error)
	ListDocuments(areaID string, limit int) ([]storage.Document, error)
	DeleteDocument(id string) error
}

// DocumentRequest attaches case-study material to an expertise area. For
// pdf, Content is base64; for url, URL is fetched by the ingest worker.
type DocumentRequest struct {
	AreaID       string `json:"area_id"`
	ProjectTitle string `json:"project_title"`
	Title        string `json:"title"`
	Kind         string `json:"kind"`
	Content      string `json:"content"`
	URL          string `json:"url"`
}

func handleCreateDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Documents == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "document storage not configured")
			return
		}
		var req DocumentRequest
		if !decodeBodyLimit(w, r, maxDocumentBodySize, &req) {
			return
		}
		doc, msg := buildDocument(deps, req)
		if msg != "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", msg)
			return
		}

		saved, err := ingest.Submit(deps.Documents, doc)
		if err != nil {
			deps.Logger.Error("failed to submit document", "title", doc.Title, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save document: %v", err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": saved.ID, "status": saved.Status})
	}
}

// buildDocument validates req and returns the document to store, or a
// message describing what is wrong with it.
func buildDocument(deps Deps, req DocumentRequest) (storage.Document, string) {
	if req.AreaID == "" {
		return storage.Document{}, "area_id is required"
	}
	if !deps.Session.Catalog().Has(req.AreaID) {
		return storage.Document{}, "unknown area_id " + strconv.Quote(req.AreaID)
	}
	if req.Kind == "" {
		req.Kind = storage.KindText
	}

	doc := storage.Document{
		AreaID:       req.AreaID,
		ProjectTitle: req.ProjectTitle,
		Title:        strings.TrimSpace(req.Title),
		Kind:         req.Kind,
	}
	switch req.Kind {
	case storage.KindText:
		if req.Content == "" {
			return storage.Document{}, "content is required for text documents"
		}
		doc.Content = []byte(req.Content)
	case storage.KindPDF:
		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil || len(data) == 0 {
			return storage.Document{}, "pdf documents need base64 content"
		}
		doc.Content = data
	case storage.KindURL:
		u, err := url.Parse(req.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return storage.Document{}, "url documents need an http or https url"
		}
		doc.Source = req.URL
		if doc.Title == "" {
			doc.Title = req.URL
		}
	default:
		return storage.Document{}, "kind must be text, url or pdf"
	}
	if doc.Title == "" {
		return storage.Document{}, "title is required"
	}
	return doc, ""
}

func handleListDocuments(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Documents == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "document storage not configured")
			return
		}
		limit := parseIntParam(r, "limit", 20, 100)
		docs, err := deps.Documents.ListDocuments(r.URL.Query().Get("area"), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list documents: %v", err)
			return
		}
		if docs == nil {
			docs = []storage.Document{}
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func handleGetDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Documents == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "document storage not configured")
			return
		}
		doc, err := deps.Documents.GetDocument(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get document: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func handleDeleteDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Documents == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "document storage not configured")
			return
		}
		err := deps.Documents.DeleteDocument(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete document: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

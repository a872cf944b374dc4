package storage

import (
	"errors"
	"time"

	"github.com/kalambet/helm/internal/catalog"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// Document kinds.
const (
	KindText = "text"
	KindURL  = "url"
	KindPDF  = "pdf"
)

// Document statuses.
const (
	DocumentPending = "pending"
	DocumentIndexed = "indexed"
	DocumentFailed  = "failed"
)

// Document is case-study material attached to an area, and optionally to
// one of its projects. Content holds the raw body for text and pdf kinds;
// Text is what the ingest worker extracted.
type Document struct {
	ID           string     `json:"id"`
	AreaID       string     `json:"area_id"`
	ProjectTitle string     `json:"project_title,omitempty"`
	Title        string     `json:"title"`
	Kind         string     `json:"kind"`
	Source       string     `json:"source,omitempty"`
	Content      []byte     `json:"-"`
	Text         string     `json:"-"`
	Status       string     `json:"status"`
	LastError    string     `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	IndexedAt    *time.Time `json:"indexed_at,omitempty"`
}

// ProjectRecord is a catalog project as stored for search.
type ProjectRecord struct {
	AreaID   string
	AreaName string
	catalog.Project
}

// DocumentMatch is an indexed document whose text matched a query, joined
// to the project it describes.
type DocumentMatch struct {
	DocumentID string
	Text       string
	ProjectRecord
}

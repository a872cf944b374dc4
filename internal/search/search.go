// Package search provides the backends behind the PerformSearch effect.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/kalambet/helm/internal/catalog"
)

// DefaultDelay is the simulated latency of the catalog searcher.
const DefaultDelay = 500 * time.Millisecond

// Result is one project matching a query. DocumentID and Snippet are set
// when the match came from an attached document rather than the project
// itself.
type Result struct {
	AreaID     string          `json:"area_id"`
	AreaName   string          `json:"area_name"`
	Project    catalog.Project `json:"project"`
	DocumentID string          `json:"document_id,omitempty"`
	Snippet    string          `json:"snippet,omitempty"`
}

// Searcher runs a query, optionally restricted to one expertise area. An
// empty scope searches everything.
type Searcher interface {
	Search(ctx context.Context, query, scope string) ([]Result, error)
}

// CatalogSearcher matches project titles and descriptions in the static
// catalog after a fixed delay.
type CatalogSearcher struct {
	catalog *catalog.Catalog
	delay   time.Duration
}

// NewCatalogSearcher creates a CatalogSearcher. A negative delay uses
// DefaultDelay; zero disables the delay.
func NewCatalogSearcher(c *catalog.Catalog, delay time.Duration) *CatalogSearcher {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &CatalogSearcher{catalog: c, delay: delay}
}

// Search returns matching projects in catalog order. A scope that names no
// area falls back to searching every area.
func (s *CatalogSearcher) Search(ctx context.Context, query, scope string) ([]Result, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	areas := s.catalog.Areas
	if a, ok := s.catalog.Area(scope); ok {
		areas = []catalog.Area{a}
	}

	q := strings.ToLower(query)
	results := []Result{}
	for _, a := range areas {
		for _, p := range a.Projects {
			if matches(p, q) {
				results = append(results, Result{AreaID: a.ID, AreaName: a.Name, Project: p})
			}
		}
	}
	return results, nil
}

func matches(p catalog.Project, q string) bool {
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

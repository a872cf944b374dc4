package search

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/helm/internal/storage"
)

const (
	defaultLimit  = 50
	snippetRadius = 60
)

// Index is the part of the store the StoreSearcher queries.
type Index interface {
	SearchProjects(ctx context.Context, query, areaID string, limit int) ([]storage.ProjectRecord, error)
	SearchDocuments(ctx context.Context, query, areaID string, limit int) ([]storage.DocumentMatch, error)
}

// StoreSearcher searches the SQLite index: project fields and the extracted
// text of attached documents, queried concurrently. Document hits are
// reported against their project and dropped when the project itself
// already matched.
type StoreSearcher struct {
	index  Index
	scopes func(id string) bool
	limit  int
}

// NewStoreSearcher creates a StoreSearcher. validScope reports whether a
// scope names a known area; unknown scopes search globally. A nil
// validScope accepts every scope.
func NewStoreSearcher(index Index, validScope func(id string) bool) *StoreSearcher {
	if validScope == nil {
		validScope = func(string) bool { return true }
	}
	return &StoreSearcher{index: index, scopes: validScope, limit: defaultLimit}
}

func (s *StoreSearcher) Search(ctx context.Context, query, scope string) ([]Result, error) {
	if scope != "" && !s.scopes(scope) {
		scope = ""
	}

	var (
		projects []storage.ProjectRecord
		docs     []storage.DocumentMatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = s.index.SearchProjects(gctx, query, scope, s.limit)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = s.index.SearchDocuments(gctx, query, scope, s.limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type key struct{ area, title string }
	seen := make(map[key]bool, len(projects))
	results := make([]Result, 0, len(projects)+len(docs))
	for _, p := range projects {
		seen[key{p.AreaID, p.Title}] = true
		results = append(results, Result{AreaID: p.AreaID, AreaName: p.AreaName, Project: p.Project})
	}
	for _, d := range docs {
		k := key{d.AreaID, d.Title}
		if seen[k] {
			continue
		}
		seen[k] = true
		results = append(results, Result{
			AreaID:     d.AreaID,
			AreaName:   d.AreaName,
			Project:    d.Project,
			DocumentID: d.DocumentID,
			Snippet:    snippet(d.Text, query),
		})
	}
	return results, nil
}

// snippet returns the text surrounding the first case-insensitive match of
// query, trimmed to word boundaries.
func snippet(text, query string) string {
	i := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if i < 0 || i+len(query) > len(text) {
		return ""
	}
	start := max(0, i-snippetRadius)
	end := min(len(text), i+len(query)+snippetRadius)
	if start > 0 {
		if j := strings.IndexByte(text[start:i], ' '); j >= 0 {
			start += j + 1
		}
	}
	if end < len(text) {
		if j := strings.LastIndexByte(text[i+len(query):end], ' '); j >= 0 {
			end = i + len(query) + j
		}
	}
	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kalambet/helm/internal/catalog"
)

// SyncCatalog replaces the stored areas and projects with c, preserving
// catalog order.
func (s *Store) SyncCatalog(c *catalog.Catalog) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning catalog sync: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM projects`); err != nil {
		return fmt.Errorf("clearing projects: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM areas`); err != nil {
		return fmt.Errorf("clearing areas: %w", err)
	}

	for i, a := range c.Areas {
		skills, err := json.Marshal(nonNil(a.Skills))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO areas (id, name, description, skills, position) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.Description, string(skills), i); err != nil {
			return fmt.Errorf("inserting area %s: %w", a.ID, err)
		}
		for j, p := range a.Projects {
			tech, err := json.Marshal(nonNil(p.Technologies))
			if err != nil {
				return err
			}
			if _, err := tx.Exec(`
				INSERT INTO projects (area_id, title, description, technologies, demo, github, position)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				a.ID, p.Title, p.Description, string(tech), p.Demo, p.GitHub, j); err != nil {
				return fmt.Errorf("inserting project %q: %w", p.Title, err)
			}
		}
	}
	return tx.Commit()
}

// SearchProjects returns projects whose title or description contains
// query, case-insensitively, in catalog order. A non-empty areaID restricts
// the search to that area.
func (s *Store) SearchProjects(ctx context.Context, query, areaID string, limit int) ([]ProjectRecord, error) {
	pattern := likePattern(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.area_id, a.name, p.title, p.description, p.technologies, p.demo, p.github
		FROM projects p JOIN areas a ON a.id = p.area_id
		WHERE (p.title LIKE ? ESCAPE '\' OR p.description LIKE ? ESCAPE '\')
		  AND (? = '' OR p.area_id = ?)
		ORDER BY a.position, p.position
		LIMIT ?`,
		pattern, pattern, areaID, areaID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectRecord
	for rows.Next() {
		var r ProjectRecord
		var tech string
		if err := rows.Scan(&r.AreaID, &r.AreaName, &r.Title, &r.Description, &tech, &r.Demo, &r.GitHub); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tech), &r.Technologies); err != nil {
			return nil, fmt.Errorf("decoding technologies for %q: %w", r.Title, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchDocuments returns indexed documents whose extracted text contains
// query. A document attached to a project carries that project; one attached
// only to an area carries a project built from the document title.
func (s *Store) SearchDocuments(ctx context.Context, query, areaID string, limit int) ([]DocumentMatch, error) {
	pattern := likePattern(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.text, d.area_id, COALESCE(a.name, ''), d.title,
		       p.title, p.description, p.technologies, p.demo, p.github
		FROM documents d
		LEFT JOIN areas a ON a.id = d.area_id
		LEFT JOIN projects p ON p.area_id = d.area_id AND p.title = d.project_title
		WHERE d.status = 'indexed' AND d.text LIKE ? ESCAPE '\'
		  AND (? = '' OR d.area_id = ?)
		ORDER BY COALESCE(a.position, 1e9), COALESCE(p.position, 1e9), d.created_at
		LIMIT ?`,
		pattern, areaID, areaID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentMatch
	for rows.Next() {
		var (
			m                             DocumentMatch
			docTitle                      string
			title, desc, tech, demo, repo sql.NullString
		)
		if err := rows.Scan(&m.DocumentID, &m.Text, &m.AreaID, &m.AreaName, &docTitle,
			&title, &desc, &tech, &demo, &repo); err != nil {
			return nil, err
		}
		if title.Valid {
			m.Title = title.String
			m.Description = desc.String
			m.Demo = demo.String
			m.GitHub = repo.String
			if err := json.Unmarshal([]byte(tech.String), &m.Technologies); err != nil {
				return nil, fmt.Errorf("decoding technologies for %q: %w", m.Title, err)
			}
		} else {
			m.Title = docTitle
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// likePattern wraps query in % wildcards, escaping LIKE metacharacters.
// SQLite LIKE is case-insensitive for ASCII.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

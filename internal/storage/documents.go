package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

const documentColumns = `id, area_id, project_title, title, kind, source, content, text, status, last_error, created_at, indexed_at`

// SaveDocument inserts a new document in the pending state.
func (s *Store) SaveDocument(d Document) error {
	switch d.Kind {
	case KindText, KindURL, KindPDF:
	default:
		return fmt.Errorf("unknown document kind %q", d.Kind)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	_, err := s.db.Exec(`
		INSERT INTO documents (id, area_id, project_title, title, kind, source, content, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.AreaID, d.ProjectTitle, d.Title, d.Kind, d.Source, d.Content, DocumentPending, formatTime(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving document %s: %w", d.ID, err)
	}
	return nil
}

// GetDocument returns the document with the given id, including its content
// and extracted text.
func (s *Store) GetDocument(id string) (Document, error) {
	row := s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

// ListDocuments returns the newest documents first, optionally restricted
// to one area.
func (s *Store) ListDocuments(areaID string, limit int) ([]Document, error) {
	rows, err := s.db.Query(`SELECT `+documentColumns+` FROM documents
		WHERE (? = '' OR area_id = ?)
		ORDER BY created_at DESC, id
		LIMIT ?`, areaID, areaID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document.
func (s *Store) DeleteDocument(id string) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	return expectOne(res)
}

// MarkDocumentIndexed stores the extracted text and makes the document
// searchable.
func (s *Store) MarkDocumentIndexed(id, text string) error {
	res, err := s.db.Exec(`UPDATE documents SET text = ?, status = ?, last_error = '', indexed_at = ? WHERE id = ?`,
		text, DocumentIndexed, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("indexing document %s: %w", id, err)
	}
	return expectOne(res)
}

// MarkDocumentFailed records an extraction failure that will not be retried.
func (s *Store) MarkDocumentFailed(id, reason string) error {
	res, err := s.db.Exec(`UPDATE documents SET status = ?, last_error = ? WHERE id = ?`, DocumentFailed, reason, id)
	if err != nil {
		return fmt.Errorf("marking document %s failed: %w", id, err)
	}
	return expectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (Document, error) {
	var (
		d         Document
		createdAt string
		indexedAt sql.NullString
	)
	err := sc.Scan(&d.ID, &d.AreaID, &d.ProjectTitle, &d.Title, &d.Kind, &d.Source, &d.Content,
		&d.Text, &d.Status, &d.LastError, &createdAt, &indexedAt)
	if err != nil {
		return Document{}, err
	}
	if d.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return Document{}, err
	}
	if indexedAt.Valid {
		t, err := parseTime("indexed_at", indexedAt.String)
		if err != nil {
			return Document{}, err
		}
		d.IndexedAt = &t
	}
	return d, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DocumentStore = (*DocumentRepo)(nil)

// DocumentRepo is the SQLite implementation of the DocumentStore port interface.
type DocumentRepo struct {
	db *DB
}

// NewDocumentRepo creates a new DocumentRepo backed by the given DB.
func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts the document or replaces the stored content for its path.
func (r *DocumentRepo) Upsert(ctx context.Context, doc model.Document) error {
	const query = `INSERT INTO documents (path, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`

	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, doc.Path, doc.Content, updatedAt); err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.Path, err)
	}

	return nil
}

// Get retrieves a document by path. Returns driven.ErrDocumentNotFound if no
// document with that path exists.
func (r *DocumentRepo) Get(ctx context.Context, path string) (*model.Document, error) {
	const query = `SELECT path, content, updated_at FROM documents WHERE path = ?`

	doc, err := scanDocument(r.db.Reader.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get document %s: %w", path, driven.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}

	return doc, nil
}

// List retrieves all documents ordered by path.
func (r *DocumentRepo) List(ctx context.Context) ([]model.Document, error) {
	const query = `SELECT path, content, updated_at FROM documents ORDER BY path`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// Delete removes a document by path. Returns driven.ErrDocumentNotFound if no
// document with that path exists.
func (r *DocumentRepo) Delete(ctx context.Context, path string) error {
	const query = `DELETE FROM documents WHERE path = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, path)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", path, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete document %s: %w", path, driven.ErrDocumentNotFound)
	}

	return nil
}

// scanner abstracts over *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var doc model.Document
	if err := s.Scan(&doc.Path, &doc.Content, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	return &doc, nil
}

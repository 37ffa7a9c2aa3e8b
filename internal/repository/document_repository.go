package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lewtec/rabisco/internal/domain"
)

const (
	upsertDocument = `INSERT INTO documents (sha256, filename, page_count)
VALUES (?, ?, ?)
ON CONFLICT(sha256) DO UPDATE SET filename = excluded.filename, page_count = excluded.page_count`

	getDocument = `SELECT sha256, filename, page_count, created_at FROM documents WHERE sha256 = ?`

	listDocuments = `SELECT sha256, filename, page_count, created_at FROM documents
ORDER BY created_at DESC, sha256 LIMIT ?`

	countDocuments = `SELECT COUNT(*) FROM documents`

	deleteDocument = `DELETE FROM documents WHERE sha256 = ?`
)

// DocumentRepository implements domain.DocumentRepository on SQLite
type DocumentRepository struct {
	db DBTX
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// NewDocumentRepositoryWithTx creates a new DocumentRepository with a transaction
func NewDocumentRepositoryWithTx(tx *sql.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Create registers a document or refreshes the filename and page count of a known one
func (r *DocumentRepository) Create(ctx context.Context, sha256, filename string, pageCount int) (*domain.Document, error) {
	if _, err := r.db.ExecContext(ctx, upsertDocument, sha256, filename, pageCount); err != nil {
		return nil, err
	}
	return r.GetBySHA256(ctx, sha256)
}

// GetBySHA256 retrieves a document by its hash, nil when unknown
func (r *DocumentRepository) GetBySHA256(ctx context.Context, sha256 string) (*domain.Document, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx, getDocument, sha256))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

// List retrieves up to limit documents, most recent first
func (r *DocumentRepository) List(ctx context.Context, limit int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, listDocuments, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

// Count returns the total number of documents
func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, countDocuments).Scan(&n)
	return n, err
}

// Delete removes a document and its stored annotations
func (r *DocumentRepository) Delete(ctx context.Context, sha256 string) error {
	return inTx(ctx, r.db, func(db DBTX) error {
		if _, err := db.ExecContext(ctx, deletePages, sha256); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, deleteDocument, sha256)
		return err
	})
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var (
		doc       domain.Document
		pageCount int64
		createdAt sql.NullTime
	)
	if err := row.Scan(&doc.SHA256, &doc.Filename, &pageCount, &createdAt); err != nil {
		return nil, err
	}
	doc.PageCount = int(pageCount)
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	return &doc, nil
}

// Verify that DocumentRepository implements domain.DocumentRepository
var _ domain.DocumentRepository = (*DocumentRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lewtec/rabisco/internal/domain"
)

const (
	upsertPage = `INSERT INTO page_annotations (document_sha256, page, payload, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(document_sha256, page) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

	deletePage = `DELETE FROM page_annotations WHERE document_sha256 = ? AND page = ?`

	deletePages = `DELETE FROM page_annotations WHERE document_sha256 = ?`

	getPage = `SELECT document_sha256, page, payload, updated_at FROM page_annotations
WHERE document_sha256 = ? AND page = ?`

	getPages = `SELECT document_sha256, page, payload, updated_at FROM page_annotations
WHERE document_sha256 = ? ORDER BY page`

	countByDocument = `SELECT COALESCE(SUM(json_array_length(payload)), 0) FROM page_annotations
WHERE document_sha256 = ?`

	countByPage = `SELECT page, json_array_length(payload) FROM page_annotations
WHERE document_sha256 = ? ORDER BY page`
)

// AnnotationRepository stores the annotation list of each document page as
// one JSON payload
type AnnotationRepository struct {
	db DBTX
}

// NewAnnotationRepository creates a new AnnotationRepository
func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// NewAnnotationRepositoryWithTx creates a new AnnotationRepository with a transaction
func NewAnnotationRepositoryWithTx(tx *sql.Tx) *AnnotationRepository {
	return &AnnotationRepository{db: tx}
}

// SavePage replaces the stored annotations of a page. An empty list removes the row.
func (r *AnnotationRepository) SavePage(ctx context.Context, documentSHA256 string, page int, anns []domain.Annotation) error {
	return savePage(ctx, r.db, documentSHA256, page, anns)
}

func savePage(ctx context.Context, db DBTX, documentSHA256 string, page int, anns []domain.Annotation) error {
	if len(anns) == 0 {
		_, err := db.ExecContext(ctx, deletePage, documentSHA256, page)
		return err
	}
	payload, err := json.Marshal(anns)
	if err != nil {
		return fmt.Errorf("while encoding page %d: %w", page, err)
	}
	_, err = db.ExecContext(ctx, upsertPage, documentSHA256, page, string(payload))
	return err
}

// SaveAll replaces every stored page of a document with pages
func (r *AnnotationRepository) SaveAll(ctx context.Context, documentSHA256 string, pages domain.PageMap) error {
	return inTx(ctx, r.db, func(db DBTX) error {
		if _, err := db.ExecContext(ctx, deletePages, documentSHA256); err != nil {
			return err
		}
		for page, anns := range pages {
			if err := savePage(ctx, db, documentSHA256, page, anns); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load retrieves every stored page of a document
func (r *AnnotationRepository) Load(ctx context.Context, documentSHA256 string) (domain.PageMap, error) {
	rows, err := r.db.QueryContext(ctx, getPages, documentSHA256)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := domain.PageMap{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		if len(p.Annotations) > 0 {
			result[p.Page] = p.Annotations
		}
	}
	return result, rows.Err()
}

// GetPage retrieves one stored page, nil when nothing is stored
func (r *AnnotationRepository) GetPage(ctx context.Context, documentSHA256 string, page int) (*domain.PageAnnotations, error) {
	p, err := scanPage(r.db.QueryRowContext(ctx, getPage, documentSHA256, page))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// CountByDocument returns the number of annotations stored for a document
func (r *AnnotationRepository) CountByDocument(ctx context.Context, documentSHA256 string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, countByDocument, documentSHA256).Scan(&n)
	return n, err
}

// CountByPage returns the number of annotations stored per page of a document
func (r *AnnotationRepository) CountByPage(ctx context.Context, documentSHA256 string) (map[int]int64, error) {
	rows, err := r.db.QueryContext(ctx, countByPage, documentSHA256)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[int]int64{}
	for rows.Next() {
		var (
			page int64
			n    int64
		)
		if err := rows.Scan(&page, &n); err != nil {
			return nil, err
		}
		result[int(page)] = n
	}
	return result, rows.Err()
}

// DeleteForDocument removes every stored page of a document
func (r *AnnotationRepository) DeleteForDocument(ctx context.Context, documentSHA256 string) error {
	_, err := r.db.ExecContext(ctx, deletePages, documentSHA256)
	return err
}

func scanPage(row scanner) (*domain.PageAnnotations, error) {
	var (
		p         domain.PageAnnotations
		page      int64
		payload   string
		updatedAt sql.NullTime
	)
	if err := row.Scan(&p.DocumentSHA256, &page, &payload, &updatedAt); err != nil {
		return nil, err
	}
	p.Page = int(page)
	if err := json.Unmarshal([]byte(payload), &p.Annotations); err != nil {
		return nil, fmt.Errorf("while decoding page %d: %w", p.Page, err)
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

// Verify that AnnotationRepository implements domain.AnnotationRepository
var _ domain.AnnotationRepository = (*AnnotationRepository)(nil)

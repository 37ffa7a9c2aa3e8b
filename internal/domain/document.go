package domain

import (
	"context"
	"time"
)

// Document represents an uploaded paged source (a PDF or a single image)
type Document struct {
	SHA256    string
	Filename  string
	PageCount int
	CreatedAt time.Time
}

// DocumentRepository defines the interface for document storage operations
type DocumentRepository interface {
	// Create registers a document, refreshing filename and page count when the hash is known
	Create(ctx context.Context, sha256, filename string, pageCount int) (*Document, error)

	// GetBySHA256 retrieves a document by its SHA256 hash
	GetBySHA256(ctx context.Context, sha256 string) (*Document, error)

	// List retrieves documents, most recent first
	List(ctx context.Context, limit int) ([]*Document, error)

	// Count returns the total number of documents
	Count(ctx context.Context) (int64, error)

	// Delete removes a document by SHA256
	Delete(ctx context.Context, sha256 string) error
}

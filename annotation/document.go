package annotation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lewtec/rabisco/internal/document"
)

// LoadedDocument is a document read from disk or an upload, with the hash
// its annotations are stored under
type LoadedDocument struct {
	Source document.Source
	SHA256 string
	Name   string
}

// OpenDocument sniffs data and opens it as a paged source
func OpenDocument(ctx context.Context, name string, data []byte, opts document.Options) (*LoadedDocument, error) {
	src, err := document.Open(ctx, name, data, opts)
	if err != nil {
		return nil, fmt.Errorf("while opening '%s': %w", name, err)
	}
	return &LoadedDocument{Source: src, SHA256: HashBytes(data), Name: name}, nil
}

// OpenDocumentFile reads filename and opens it as a paged source
func OpenDocumentFile(ctx context.Context, filename string, opts document.Options) (*LoadedDocument, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("while reading '%s': %w", filename, err)
	}
	return OpenDocument(ctx, filepath.Base(filename), data, opts)
}

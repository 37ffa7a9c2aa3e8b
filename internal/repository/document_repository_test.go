package repository

import (
	"context"
	"testing"
)

func TestDocumentRepository_Create(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	t.Run("creates document successfully", func(t *testing.T) {
		doc, err := repo.Create(ctx, "abc123", "report.pdf", 4)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if doc.SHA256 != "abc123" {
			t.Errorf("SHA256 = %v, want abc123", doc.SHA256)
		}
		if doc.Filename != "report.pdf" {
			t.Errorf("Filename = %v, want report.pdf", doc.Filename)
		}
		if doc.PageCount != 4 {
			t.Errorf("PageCount = %v, want 4", doc.PageCount)
		}
		if doc.CreatedAt.IsZero() {
			t.Error("CreatedAt should not be zero")
		}
	})

	t.Run("refreshes a known hash", func(t *testing.T) {
		doc, err := repo.Create(ctx, "abc123", "renamed.pdf", 5)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if doc.Filename != "renamed.pdf" || doc.PageCount != 5 {
			t.Errorf("Create() = %+v", doc)
		}
		n, _ := repo.Count(ctx)
		if n != 1 {
			t.Errorf("Count() = %d, want 1", n)
		}
	})
}

func TestDocumentRepository_GetBySHA256(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	repo.Create(ctx, "abc123", "report.pdf", 1)

	t.Run("returns existing document", func(t *testing.T) {
		doc, err := repo.GetBySHA256(ctx, "abc123")
		if err != nil {
			t.Fatalf("GetBySHA256() error = %v", err)
		}
		if doc == nil || doc.Filename != "report.pdf" {
			t.Errorf("GetBySHA256() = %+v", doc)
		}
	})

	t.Run("returns nil for unknown hash", func(t *testing.T) {
		doc, err := repo.GetBySHA256(ctx, "nope")
		if err != nil {
			t.Fatalf("GetBySHA256() error = %v", err)
		}
		if doc != nil {
			t.Errorf("GetBySHA256() = %+v, want nil", doc)
		}
	})
}

func TestDocumentRepository_ListAndDelete(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	repo := NewDocumentRepository(db)
	annRepo := NewAnnotationRepository(db)
	ctx := context.Background()

	MustExec(t, db, `INSERT INTO documents (sha256, filename, page_count, created_at) VALUES ('old', 'old.png', 1, '2024-01-01 10:00:00')`)
	MustExec(t, db, `INSERT INTO documents (sha256, filename, page_count, created_at) VALUES ('new', 'new.pdf', 2, '2024-06-01 10:00:00')`)
	annRepo.SavePage(ctx, "new", 1, sampleAnnotations())

	t.Run("lists most recent first", func(t *testing.T) {
		docs, err := repo.List(ctx, 10)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(docs) != 2 || docs[0].SHA256 != "new" || docs[1].SHA256 != "old" {
			t.Errorf("List() = %v", docs)
		}
	})

	t.Run("honors the limit", func(t *testing.T) {
		docs, err := repo.List(ctx, 1)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(docs) != 1 {
			t.Errorf("len(List(1)) = %d, want 1", len(docs))
		}
	})

	t.Run("delete drops stored annotations", func(t *testing.T) {
		if err := repo.Delete(ctx, "new"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		doc, _ := repo.GetBySHA256(ctx, "new")
		if doc != nil {
			t.Error("document still present after Delete()")
		}
		n, _ := annRepo.CountByDocument(ctx, "new")
		if n != 0 {
			t.Errorf("CountByDocument() = %d, want 0", n)
		}
		count, _ := repo.Count(ctx)
		if count != 1 {
			t.Errorf("Count() = %d, want 1", count)
		}
	})
}

package db_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/kuitang/inkpad/internal/db"
)

func TestOpen_RejectsBadKeyLength(t *testing.T) {
	t.Parallel()
	if _, err := db.Open(t.TempDir(), []byte("short")); err == nil {
		t.Fatal("expected error for non-32-byte DEK")
	}
}

func TestOpen_CreatesEncryptedDatabaseOnDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	store, err := db.Open(dir, db.GetHardcodedDEK())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	docID := uuid.New().String()
	ctx := context.Background()
	if err := store.CreateDocument(ctx, db.DocumentRow{ID: docID, Title: "persisted"}); err != nil {
		t.Fatalf("failed to create document: %v", err)
	}

	row, err := store.GetDocument(ctx, docID)
	if err != nil {
		t.Fatalf("failed to read document back: %v", err)
	}
	if row.Title != "persisted" {
		t.Fatalf("title mismatch: %q", row.Title)
	}

	if _, err := os.Stat(filepath.Join(dir, db.DocumentsDBName)); err != nil {
		t.Fatalf("expected database file under %s: %v", dir, err)
	}
}

func TestGetDocument_MissingReturnsErrNoRows(t *testing.T) {
	t.Parallel()
	store := setupStore(t)

	_, err := store.GetDocument(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListDocuments_NewestFirst(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	for i, title := range []string{"oldest", "middle", "newest"} {
		err := store.CreateDocument(ctx, db.DocumentRow{
			ID:        uuid.New().String(),
			Title:     title,
			CreatedAt: int64(i),
			UpdatedAt: int64(i),
		})
		if err != nil {
			t.Fatalf("failed to create document: %v", err)
		}
	}

	rows, err := store.ListDocuments(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list documents: %v", err)
	}
	if len(rows) != 3 || rows[0].Title != "newest" || rows[2].Title != "oldest" {
		t.Fatalf("unexpected order: %+v", rows)
	}

	total, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 documents, got %d", total)
	}
}

func TestDeleteDocument_CascadesToPages(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	docID := seedDocument(t, store, "a", "b")
	n, err := store.DeleteDocument(ctx, docID)
	if err != nil {
		t.Fatalf("failed to delete document: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row deleted, got %d", n)
	}

	count, err := store.PageCount(ctx, docID)
	if err != nil {
		t.Fatalf("failed to count pages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cascade to remove pages, %d left", count)
	}

	n, err = store.DeleteDocument(ctx, docID)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 rows on double delete, got n=%d err=%v", n, err)
	}
}

func TestInsertPageAt_ShiftsLaterPages(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	docID := seedDocument(t, store, "a", "c")
	err := store.InsertPageAt(ctx, db.PageRow{
		ID:         uuid.New().String(),
		DocumentID: docID,
		Position:   1,
		Content:    "b",
	})
	if err != nil {
		t.Fatalf("failed to insert page: %v", err)
	}
	assertContents(t, store, docID, "a", "b", "c")
}

func TestUpdatePageContent_VacantPositionReturnsErrNoRows(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	docID := seedDocument(t, store, "a")
	if err := store.UpdatePageContent(ctx, docID, 0, "a2", 1); err != nil {
		t.Fatalf("failed to update page: %v", err)
	}
	row, err := store.GetPageAt(ctx, docID, 0)
	if err != nil {
		t.Fatalf("failed to read page: %v", err)
	}
	if row.Content != "a2" || row.UpdatedAt != 1 {
		t.Fatalf("unexpected row after update: %+v", row)
	}

	if err := store.UpdatePageContent(ctx, docID, 9, "x", 1); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for vacant position, got %v", err)
	}
}

func TestTouchDocument_BumpsUpdatedAt(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	docID := seedDocument(t, store)
	if err := store.TouchDocument(ctx, docID, 12345); err != nil {
		t.Fatalf("failed to touch document: %v", err)
	}
	row, err := store.GetDocument(ctx, docID)
	if err != nil {
		t.Fatalf("failed to read document: %v", err)
	}
	if row.UpdatedAt != 12345 {
		t.Fatalf("expected updated_at bumped, got %d", row.UpdatedAt)
	}
}

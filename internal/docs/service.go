// Package docs implements the document service: CRUD over multi-page
// documents, page content editing, and the executor that applies batch page
// operations produced by the pageops engine.
//
// Structural page edits (delete, duplicate, move) are deliberately absent
// from the page-level API — they go through ApplyBatch so that every edit is
// validated and normalized as part of its queue.
package docs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kuitang/inkpad/internal/db"
	"github.com/kuitang/inkpad/internal/errs"
)

const (
	// DefaultLimit is the default number of documents to return in a list
	DefaultLimit = 50

	// MaxLimit is the maximum number of documents to return in a list
	MaxLimit = 1000

	// PreviewLines is how many leading lines a page summary shows
	PreviewLines = 3
)

// Service handles document and page operations using the db layer.
type Service struct {
	store *db.Store
}

// NewService creates a new document service.
func NewService(store *db.Store) *Service {
	return &Service{store: store}
}

// Create creates a new document with its initial pages. An empty Pages slice
// yields one blank page.
func (s *Service) Create(ctx context.Context, params CreateDocumentParams) (*Document, error) {
	if params.Title == "" {
		return nil, errs.New(errs.InvalidArgument, "title is required")
	}

	pages := params.Pages
	if len(pages) == 0 {
		pages = []string{""}
	}

	docID := uuid.New().String()
	now := time.Now().UTC()
	nowUnix := now.Unix()

	err := s.store.CreateDocument(ctx, db.DocumentRow{
		ID:        docID,
		Title:     params.Title,
		CreatedAt: nowUnix,
		UpdatedAt: nowUnix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	for i, content := range pages {
		err := s.store.InsertPageAt(ctx, db.PageRow{
			ID:         uuid.New().String(),
			DocumentID: docID,
			Position:   int64(i),
			Content:    content,
			CreatedAt:  nowUnix,
			UpdatedAt:  nowUnix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create page %d: %w", i, err)
		}
	}

	return &Document{
		ID:        docID,
		Title:     params.Title,
		PageCount: len(pages),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get retrieves a document by ID.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	if id == "" {
		return nil, errs.New(errs.InvalidArgument, "document ID is required")
	}

	row, err := s.store.GetDocument(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "document not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	count, err := s.store.PageCount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	doc := rowToDocument(row)
	doc.PageCount = int(count)
	return &doc, nil
}

// List returns a paginated list of documents, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.store.ListDocuments(ctx, int64(limit), int64(offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	total, err := s.store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	result := &DocumentListResult{
		Documents:  make([]Document, 0, len(rows)),
		TotalCount: int(total),
		Limit:      limit,
		Offset:     offset,
	}
	for _, row := range rows {
		count, err := s.store.PageCount(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count pages: %w", err)
		}
		doc := rowToDocument(row)
		doc.PageCount = int(count)
		result.Documents = append(result.Documents, doc)
	}
	return result, nil
}

// Delete removes a document and all of its pages.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errs.New(errs.InvalidArgument, "document ID is required")
	}
	n, err := s.store.DeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n == 0 {
		return errs.New(errs.NotFound, "document not found")
	}
	return nil
}

// Pages returns summaries of all pages of a document in position order.
func (s *Service) Pages(ctx context.Context, documentID string) ([]PageSummary, error) {
	if err := s.requireDocument(ctx, documentID); err != nil {
		return nil, err
	}

	rows, err := s.store.GetPages(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	summaries := make([]PageSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, PageSummary{
			ID:         row.ID,
			Position:   int(row.Position),
			Preview:    ContentPreview(row.Content, PreviewLines),
			TotalLines: CountLines(row.Content),
			UpdatedAt:  time.Unix(row.UpdatedAt, 0).UTC(),
		})
	}
	return summaries, nil
}

// Page retrieves the full page at index.
func (s *Service) Page(ctx context.Context, documentID string, index int) (*Page, error) {
	if err := s.requireDocument(ctx, documentID); err != nil {
		return nil, err
	}

	row, err := s.store.GetPageAt(ctx, documentID, int64(index))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("no page at index %d", index))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	page := rowToPage(row)
	return &page, nil
}

// AppendPage adds a page with the given content at the end of the document.
func (s *Service) AppendPage(ctx context.Context, documentID, content string) (*Page, error) {
	if err := s.requireDocument(ctx, documentID); err != nil {
		return nil, err
	}

	count, err := s.store.PageCount(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	return s.insertPage(ctx, documentID, count, content)
}

// InsertPage adds a page at index, shifting later pages up. index may equal
// the current page count, which appends.
func (s *Service) InsertPage(ctx context.Context, documentID string, index int, content string) (*Page, error) {
	if err := s.requireDocument(ctx, documentID); err != nil {
		return nil, err
	}

	count, err := s.store.PageCount(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	if index < 0 || int64(index) > count {
		return nil, errs.New(errs.InvalidArgument,
			fmt.Sprintf("insert index %d out of range 0 to %d", index, count))
	}
	return s.insertPage(ctx, documentID, int64(index), content)
}

// UpdatePage replaces the content of the page at index.
func (s *Service) UpdatePage(ctx context.Context, documentID string, index int, content string) (*Page, error) {
	if err := s.requireDocument(ctx, documentID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err := s.store.UpdatePageContent(ctx, documentID, int64(index), content, now.Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("no page at index %d", index))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}
	if err := s.store.TouchDocument(ctx, documentID, now.Unix()); err != nil {
		return nil, err
	}
	return s.Page(ctx, documentID, index)
}

// PageHTML renders the markdown content of the page at index to sanitized HTML.
func (s *Service) PageHTML(ctx context.Context, documentID string, index int) ([]byte, error) {
	page, err := s.Page(ctx, documentID, index)
	if err != nil {
		return nil, err
	}
	return RenderPageHTML(page.Content), nil
}

func (s *Service) insertPage(ctx context.Context, documentID string, position int64, content string) (*Page, error) {
	now := time.Now().UTC()
	row := db.PageRow{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Position:   position,
		Content:    content,
		CreatedAt:  now.Unix(),
		UpdatedAt:  now.Unix(),
	}
	if err := s.store.InsertPageAt(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to insert page: %w", err)
	}
	if err := s.store.TouchDocument(ctx, documentID, now.Unix()); err != nil {
		return nil, err
	}
	page := rowToPage(row)
	return &page, nil
}

func (s *Service) requireDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return errs.New(errs.InvalidArgument, "document ID is required")
	}
	_, err := s.store.GetDocument(ctx, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.New(errs.NotFound, "document not found")
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	return nil
}

func rowToDocument(row db.DocumentRow) Document {
	return Document{
		ID:        row.ID,
		Title:     row.Title,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(row.UpdatedAt, 0).UTC(),
	}
}

func rowToPage(row db.PageRow) Page {
	return Page{
		ID:        row.ID,
		Position:  int(row.Position),
		Content:   row.Content,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(row.UpdatedAt, 0).UTC(),
	}
}

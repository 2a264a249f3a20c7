package docs

import "time"

// Document represents a multi-page document with metadata. PageCount is the
// current number of pages; a document always has at least one.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page represents a single page with full content. Position is the page's
// current 0-based index within its document.
type Page struct {
	ID        string    `json:"id"`
	Position  int       `json:"position"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageSummary represents a page in a list with a preview instead of full content.
type PageSummary struct {
	ID         string    `json:"id"`
	Position   int       `json:"position"`
	Preview    string    `json:"preview"`
	TotalLines int       `json:"total_lines"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentListResult represents a paginated list of documents.
type DocumentListResult struct {
	Documents  []Document `json:"documents"`
	TotalCount int        `json:"total_count"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// CreateDocumentParams contains parameters for creating a document.
// Pages holds the initial page contents; when empty, the document starts
// with a single blank page so the at-least-one-page invariant holds from
// birth.
type CreateDocumentParams struct {
	Title string   `json:"title"`
	Pages []string `json:"pages,omitempty"`
}

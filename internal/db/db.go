// Package db provides the encrypted SQLite storage layer for documents and
// their pages. Page order is materialized in the pages.position column,
// contiguous from 0 within each document; every structural edit (delete,
// duplicate, move) runs inside a transaction that preserves that invariant.
package db

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDataDirectory is the default root directory for database files
	DefaultDataDirectory = "./data"

	// DocumentsDBName is the filename for the documents database
	DocumentsDBName = "documents.db"

	// MaxOpenConns caps open connections. SQLite is single-writer, so high
	// connection counts are counterproductive.
	MaxOpenConns = 10

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns = 2
)

// hardcodedDEK is the development/test encryption key. Production deploys
// derive the key from MASTER_KEY instead.
var hardcodedDEK = []byte("0123456789abcdef0123456789abcdef")

// GetHardcodedDEK returns the 32-byte development encryption key.
func GetHardcodedDEK() []byte {
	return hardcodedDEK
}

// Store wraps the documents database connection.
type Store struct {
	db *sql.DB
}

// NewStoreFromSQL wraps an existing sql.DB as a Store. Used by tests that
// open their own in-memory databases.
func NewStoreFromSQL(sqlDB *sql.DB) *Store {
	return &Store{db: sqlDB}
}

// DB returns the underlying sql.DB for direct access when needed
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Open opens (creating if necessary) the encrypted documents database under
// dataDir. dek is the 32-byte SQLCipher Data Encryption Key.
func Open(dataDir string, dek []byte) (*Store, error) {
	if len(dek) != 32 {
		return nil, fmt.Errorf("DEK must be exactly 32 bytes, got %d", len(dek))
	}

	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DocumentsDBName)
	dekHex := hex.EncodeToString(dek)

	// DSN format: file.db?_pragma_key=x'HEX_KEY'&_pragma_cipher_page_size=4096
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, dekHex)
	dsn = appendSQLiteParams(dsn, sqliteCommonParams())

	sqlDB, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open documents database: %w", err)
	}

	sqlDB.SetMaxOpenConns(MaxOpenConns)
	sqlDB.SetMaxIdleConns(MaxIdleConns)

	// Verify connection and encryption. A wrong key fails here, not at Open.
	var sqliteVersion string
	if err := sqlDB.QueryRow("SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to verify documents database: %w", err)
	}

	if _, err := sqlDB.Exec(DocumentsDBSchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize documents schema: %w", err)
	}

	return NewStoreFromSQL(sqlDB), nil
}

func sqliteCommonParams() string {
	// Production-safe defaults: WAL + NORMAL provides good throughput while preserving safety.
	return "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
}

func appendSQLiteParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

// DocumentRow is one documents table row. Timestamps are Unix seconds.
type DocumentRow struct {
	ID        string
	Title     string
	CreatedAt int64
	UpdatedAt int64
}

// PageRow is one pages table row. Timestamps are Unix seconds.
type PageRow struct {
	ID         string
	DocumentID string
	Position   int64
	Content    string
	CreatedAt  int64
	UpdatedAt  int64
}

// CreateDocument inserts a new document row.
func (s *Store) CreateDocument(ctx context.Context, row DocumentRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		row.ID, row.Title, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetDocument fetches a document by ID. Returns sql.ErrNoRows when absent.
func (s *Store) GetDocument(ctx context.Context, id string) (DocumentRow, error) {
	var row DocumentRow
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM documents WHERE id = ?`, id,
	).Scan(&row.ID, &row.Title, &row.CreatedAt, &row.UpdatedAt)
	if err == sql.ErrNoRows {
		return DocumentRow{}, err
	}
	if err != nil {
		return DocumentRow{}, fmt.Errorf("failed to get document: %w", err)
	}
	return row, nil
}

// ListDocuments returns documents ordered by last update, newest first.
func (s *Store) ListDocuments(ctx context.Context, limit, offset int64) ([]DocumentRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM documents
		 ORDER BY updated_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var result []DocumentRow
	for rows.Next() {
		var row DocumentRow
		if err := rows.Scan(&row.ID, &row.Title, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return result, nil
}

// CountDocuments returns the total number of documents.
func (s *Store) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// DeleteDocument removes a document and, via ON DELETE CASCADE, its pages.
// Returns the number of documents removed (0 or 1).
func (s *Store) DeleteDocument(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n, nil
}

// TouchDocument bumps a document's updated_at.
func (s *Store) TouchDocument(ctx context.Context, id string, now int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE documents SET updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("failed to touch document: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in a document.
func (s *Store) PageCount(ctx context.Context, documentID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE document_id = ?`, documentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// GetPages returns all pages of a document in position order.
func (s *Store) GetPages(ctx context.Context, documentID string) ([]PageRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, position, content, created_at, updated_at
		 FROM pages WHERE document_id = ? ORDER BY position`, documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var result []PageRow
	for rows.Next() {
		var row PageRow
		if err := rows.Scan(&row.ID, &row.DocumentID, &row.Position, &row.Content, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pages: %w", err)
	}
	return result, nil
}

// GetPageAt fetches the page at a position. Returns sql.ErrNoRows when the
// position is vacant.
func (s *Store) GetPageAt(ctx context.Context, documentID string, position int64) (PageRow, error) {
	var row PageRow
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, position, content, created_at, updated_at
		 FROM pages WHERE document_id = ? AND position = ?`, documentID, position,
	).Scan(&row.ID, &row.DocumentID, &row.Position, &row.Content, &row.CreatedAt, &row.UpdatedAt)
	if err == sql.ErrNoRows {
		return PageRow{}, err
	}
	if err != nil {
		return PageRow{}, fmt.Errorf("failed to get page: %w", err)
	}
	return row, nil
}

// InsertPageAt inserts a page at position, shifting later pages up by one.
// position must be in [0, pageCount]; pageCount appends.
func (s *Store) InsertPageAt(ctx context.Context, row PageRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE pages SET position = position + 1 WHERE document_id = ? AND position >= ?`,
		row.DocumentID, row.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to shift pages: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pages (id, document_id, position, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row.ID, row.DocumentID, row.Position, row.Content, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit page insert: %w", err)
	}
	return nil
}

// UpdatePageContent replaces the content of the page at position.
// Returns sql.ErrNoRows when the position is vacant.
func (s *Store) UpdatePageContent(ctx context.Context, documentID string, position int64, content string, now int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pages SET content = ?, updated_at = ? WHERE document_id = ? AND position = ?`,
		content, now, documentID, position,
	)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

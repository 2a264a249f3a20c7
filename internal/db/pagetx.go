package db

import (
	"context"
	"database/sql"
	"fmt"
)

// PageTx exposes the structural page operations inside one transaction:
// delete, duplicate, move, plus a page-count query. A batch of operations
// either lands completely or not at all — any error rolls the whole
// transaction back.
//
// All positions are 0-based and interpreted against the document's layout at
// the moment of the call, i.e. callers are expected to pass normalized
// (execution-time) indices, not enqueue-time ones.
type PageTx struct {
	tx         *sql.Tx
	documentID string
}

// WithPageTx runs fn against a transactional page-operation view of the
// given document. The transaction is committed when fn returns nil and
// rolled back otherwise.
func (s *Store) WithPageTx(ctx context.Context, documentID string, fn func(*PageTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin page transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&PageTx{tx: tx, documentID: documentID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit page transaction: %w", err)
	}
	return nil
}

// PageCount returns the current number of pages within the transaction.
func (p *PageTx) PageCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE document_id = ?`, p.documentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// DeletePageAt removes the page at position and closes the gap.
func (p *PageTx) DeletePageAt(ctx context.Context, position int64) error {
	res, err := p.tx.ExecContext(ctx,
		`DELETE FROM pages WHERE document_id = ? AND position = ?`,
		p.documentID, position,
	)
	if err != nil {
		return fmt.Errorf("failed to delete page at %d: %w", position, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no page at position %d: %w", position, sql.ErrNoRows)
	}

	_, err = p.tx.ExecContext(ctx,
		`UPDATE pages SET position = position - 1 WHERE document_id = ? AND position > ?`,
		p.documentID, position,
	)
	if err != nil {
		return fmt.Errorf("failed to close page gap at %d: %w", position, err)
	}
	return nil
}

// DuplicatePageAt copies the page at position, inserting the copy after the
// original when insertAfter is true and immediately before it otherwise.
// newID is the id of the copy; now stamps its timestamps.
func (p *PageTx) DuplicatePageAt(ctx context.Context, position int64, insertAfter bool, newID string, now int64) error {
	var content string
	err := p.tx.QueryRowContext(ctx,
		`SELECT content FROM pages WHERE document_id = ? AND position = ?`,
		p.documentID, position,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no page at position %d: %w", position, err)
	}
	if err != nil {
		return fmt.Errorf("failed to read page at %d: %w", position, err)
	}

	insertPos := position
	if insertAfter {
		insertPos++
	}

	_, err = p.tx.ExecContext(ctx,
		`UPDATE pages SET position = position + 1 WHERE document_id = ? AND position >= ?`,
		p.documentID, insertPos,
	)
	if err != nil {
		return fmt.Errorf("failed to shift pages for duplicate at %d: %w", position, err)
	}

	_, err = p.tx.ExecContext(ctx,
		`INSERT INTO pages (id, document_id, position, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		newID, p.documentID, insertPos, content, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert duplicated page: %w", err)
	}
	return nil
}

// MovePage relocates the page at from to position to, shifting the pages in
// between. The target is clamped into the current valid range, which matters
// when an earlier delete in the same batch shrank the document below the
// normalized target.
func (p *PageTx) MovePage(ctx context.Context, from, to int64) error {
	count, err := p.PageCount(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("document has no pages: %w", sql.ErrNoRows)
	}
	if to > count-1 {
		to = count - 1
	}
	if to < 0 {
		to = 0
	}
	if from == to {
		return nil
	}

	var pageID string
	err = p.tx.QueryRowContext(ctx,
		`SELECT id FROM pages WHERE document_id = ? AND position = ?`,
		p.documentID, from,
	).Scan(&pageID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no page at position %d: %w", from, err)
	}
	if err != nil {
		return fmt.Errorf("failed to read page at %d: %w", from, err)
	}

	if from < to {
		_, err = p.tx.ExecContext(ctx,
			`UPDATE pages SET position = position - 1
			 WHERE document_id = ? AND position > ? AND position <= ?`,
			p.documentID, from, to,
		)
	} else {
		_, err = p.tx.ExecContext(ctx,
			`UPDATE pages SET position = position + 1
			 WHERE document_id = ? AND position >= ? AND position < ?`,
			p.documentID, to, from,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to shift pages for move %d -> %d: %w", from, to, err)
	}

	_, err = p.tx.ExecContext(ctx,
		`UPDATE pages SET position = ? WHERE id = ?`, to, pageID,
	)
	if err != nil {
		return fmt.Errorf("failed to place moved page: %w", err)
	}
	return nil
}

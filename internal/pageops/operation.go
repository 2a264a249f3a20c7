// Package pageops implements the batch page-operation engine: queued
// structural edits (delete, duplicate, move) against a multi-page document,
// validated as a whole and normalized into execution-ready indices.
//
// Operations carry the page index as it was known when the user enqueued
// them. Other queued operations change the page layout before execution, so
// enqueue-time indices are only a claim about the original document. The
// Validator checks the queue against the original page count; the Normalizer
// converts enqueue-time indices into indices valid at execution time.
package pageops

import "github.com/google/uuid"

// Kind discriminates the operation variants.
type Kind string

const (
	KindDelete    Kind = "delete"
	KindDuplicate Kind = "duplicate"
	KindMove      Kind = "move"
)

// Operation is an immutable intent to edit the page structure of a document.
// PageIndex is the page's 0-based position at enqueue time. InsertAfter is
// meaningful only for duplicates, TargetIndex only for moves.
//
// Constructors do not bounds-check indices; that is the Validator's job
// against the document's actual page count.
type Operation struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"type"`
	PageIndex   int    `json:"page_index"`
	InsertAfter bool   `json:"insert_after,omitempty"`
	TargetIndex int    `json:"target_index,omitempty"`
}

// NewDelete creates a delete operation for the page at pageIndex.
func NewDelete(pageIndex int) Operation {
	return Operation{
		ID:        uuid.New().String(),
		Kind:      KindDelete,
		PageIndex: pageIndex,
	}
}

// NewDuplicate creates a duplicate operation for the page at pageIndex.
// The copy is inserted after the original when insertAfter is true,
// immediately before it otherwise.
func NewDuplicate(pageIndex int, insertAfter bool) Operation {
	return Operation{
		ID:          uuid.New().String(),
		Kind:        KindDuplicate,
		PageIndex:   pageIndex,
		InsertAfter: insertAfter,
	}
}

// NewMove creates a move operation relocating the page at pageIndex to
// targetIndex.
func NewMove(pageIndex, targetIndex int) Operation {
	return Operation{
		ID:          uuid.New().String(),
		Kind:        KindMove,
		PageIndex:   pageIndex,
		TargetIndex: targetIndex,
	}
}

// NormalizedOperation pairs an operation with the index it must use at
// execution time. TargetIndex is set only for moves.
type NormalizedOperation struct {
	Operation   Operation `json:"operation"`
	Index       int       `json:"normalized_index"`
	TargetIndex *int      `json:"normalized_target_index,omitempty"`
}

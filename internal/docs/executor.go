package docs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kuitang/inkpad/internal/db"
	"github.com/kuitang/inkpad/internal/pageops"
)

// BatchResult reports a successfully applied batch. Operations holds the
// normalized operations in the order they were executed.
type BatchResult struct {
	Operations []pageops.NormalizedOperation `json:"operations"`
	PageCount  int                           `json:"page_count"`
}

// BatchInvalidError carries the validation result of a rejected batch.
// ApplyBatch returns it instead of touching the document when the queue
// fails validation.
type BatchInvalidError struct {
	Result pageops.ValidationResult
}

func (e *BatchInvalidError) Error() string {
	return fmt.Sprintf("batch validation failed with %d errors", len(e.Result.Errors))
}

// ValidateBatch checks a queued operation list against the document's
// current page count without applying anything.
func (s *Service) ValidateBatch(ctx context.Context, documentID string, ops []pageops.Operation) (pageops.ValidationResult, error) {
	if err := s.requireDocument(ctx, documentID); err != nil {
		return pageops.ValidationResult{}, err
	}
	count, err := s.store.PageCount(ctx, documentID)
	if err != nil {
		return pageops.ValidationResult{}, fmt.Errorf("failed to count pages: %w", err)
	}
	return pageops.Validate(ops, int(count)), nil
}

// ApplyBatch validates, normalizes, and applies a queued operation list
// atomically. Operations execute in the normalizer's contractual order —
// deletes, duplicates, moves — inside one transaction; any failure rolls the
// whole batch back. On validation failure the returned error is a
// *BatchInvalidError carrying every violation.
func (s *Service) ApplyBatch(ctx context.Context, documentID string, ops []pageops.Operation) (*BatchResult, error) {
	if err := s.requireDocument(ctx, documentID); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Unix()
	var result BatchResult

	err := s.store.WithPageTx(ctx, documentID, func(tx *db.PageTx) error {
		count, err := tx.PageCount(ctx)
		if err != nil {
			return err
		}

		// Validation and normalization share the transaction's page count so
		// a concurrent edit between the two cannot desynchronize them.
		if validation := pageops.Validate(ops, int(count)); !validation.IsValid {
			return &BatchInvalidError{Result: validation}
		}

		normalized := pageops.NormalizeIndices(ops, int(count))
		for _, n := range normalized {
			switch n.Operation.Kind {
			case pageops.KindDelete:
				err = tx.DeletePageAt(ctx, int64(n.Index))
			case pageops.KindDuplicate:
				err = tx.DuplicatePageAt(ctx, int64(n.Index), n.Operation.InsertAfter, uuid.New().String(), now)
			case pageops.KindMove:
				err = tx.MovePage(ctx, int64(n.Index), int64(*n.TargetIndex))
			default:
				err = fmt.Errorf("unknown operation kind %q", n.Operation.Kind)
			}
			if err != nil {
				return fmt.Errorf("failed to apply %s %s: %w", n.Operation.Kind, n.Operation.ID, err)
			}
		}

		finalCount, err := tx.PageCount(ctx)
		if err != nil {
			return err
		}
		result = BatchResult{Operations: normalized, PageCount: int(finalCount)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.TouchDocument(ctx, documentID, now); err != nil {
		return nil, err
	}
	return &result, nil
}

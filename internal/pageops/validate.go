package pageops

import "fmt"

// ValidationError attributes one violation to the offending operation.
// Message is a complete sentence suitable for direct display; the UI shows
// it verbatim, so there are no error codes.
type ValidationError struct {
	OperationID string `json:"operation_id"`
	Message     string `json:"message"`
}

// ValidationResult reports whether a queue is applicable as a whole.
// IsValid is true exactly when Errors is empty.
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

func newValidationResult(errors []ValidationError) ValidationResult {
	return ValidationResult{IsValid: len(errors) == 0, Errors: errors}
}

// Validate checks a queued operation list against the document's current
// page count. pageCount is the baseline before any queued operation runs;
// every PageIndex and TargetIndex is checked against it, not against a
// running count.
//
// All violations are accumulated — validation never short-circuits, so the
// caller can surface every problem at once. Per-operation errors (bounds,
// last-page guard) come first in enqueue order, followed by conflict errors
// grouped by page index in first-encounter order.
func Validate(operations []Operation, pageCount int) ValidationResult {
	var errs []ValidationError

	// The last-page guard simulates deletes and duplicates in enqueue order:
	// a delete that would leave the document empty is rejected and does not
	// decrement the running count.
	currentPageCount := pageCount

	for _, op := range operations {
		if op.PageIndex < 0 || op.PageIndex >= pageCount {
			errs = append(errs, ValidationError{
				OperationID: op.ID,
				Message:     fmt.Sprintf("Invalid page index: %d. Valid range is 0 to %d.", op.PageIndex, pageCount-1),
			})
		}

		switch op.Kind {
		case KindDelete:
			if currentPageCount <= 1 {
				errs = append(errs, ValidationError{
					OperationID: op.ID,
					Message:     "Cannot delete the last remaining page. A document must have at least one page.",
				})
			} else {
				currentPageCount--
			}
		case KindDuplicate:
			currentPageCount++
		case KindMove:
			if op.TargetIndex < 0 || op.TargetIndex >= pageCount {
				errs = append(errs, ValidationError{
					OperationID: op.ID,
					Message:     fmt.Sprintf("Invalid target index: %d. Valid range is 0 to %d.", op.TargetIndex, pageCount-1),
				})
			}
		}
	}

	errs = append(errs, conflictErrors(operations)...)

	return newValidationResult(errs)
}

// conflictErrors scans the full queue for disallowed combinations on the
// same original page index. Duplicates never conflict with anything.
func conflictErrors(operations []Operation) []ValidationError {
	byIndex := make(map[int][]Operation)
	var indexOrder []int
	for _, op := range operations {
		if _, seen := byIndex[op.PageIndex]; !seen {
			indexOrder = append(indexOrder, op.PageIndex)
		}
		byIndex[op.PageIndex] = append(byIndex[op.PageIndex], op)
	}

	var errs []ValidationError
	for _, idx := range indexOrder {
		var deletes, moves []Operation
		for _, op := range byIndex[idx] {
			switch op.Kind {
			case KindDelete:
				deletes = append(deletes, op)
			case KindMove:
				moves = append(moves, op)
			}
		}

		// First delete on a page wins; every later one is redundant.
		if len(deletes) > 1 {
			for _, op := range deletes[1:] {
				errs = append(errs, ValidationError{
					OperationID: op.ID,
					Message:     fmt.Sprintf("Conflicting operation: Page %d already has a delete operation.", idx),
				})
			}
		}

		// A delete wins over any move of the same page; the error attaches
		// to the move, never to the delete.
		if len(deletes) > 0 {
			for _, op := range moves {
				errs = append(errs, ValidationError{
					OperationID: op.ID,
					Message:     fmt.Sprintf("Conflicting operation: Cannot move page %d because it has a pending delete operation.", idx),
				})
			}
		}

		if len(moves) > 1 {
			for _, op := range moves[1:] {
				errs = append(errs, ValidationError{
					OperationID: op.ID,
					Message:     fmt.Sprintf("Conflicting operation: Page %d already has a move operation.", idx),
				})
			}
		}
	}
	return errs
}

package pageops

// NormalizeIndices converts enqueue-time indices into indices valid at
// execution time and returns the operations in their contractual execution
// order: all deletes, then all duplicates, then all moves, each group in
// enqueue order. An executor must apply them in exactly this order — the
// index simulation below assumes it, so any other order desynchronizes the
// computed indices from the actual page layout.
//
// The queue is re-validated first; an invalid queue yields a nil result.
// Callers are expected to have called Validate already and surfaced its
// errors, so the empty result is a "nothing to do" sentinel, not an error
// channel. A non-empty input with an empty result means the caller skipped
// validation.
func NormalizeIndices(operations []Operation, pageCount int) []NormalizedOperation {
	if !Validate(operations, pageCount).IsValid {
		return nil
	}

	var deletes, duplicates, moves []Operation
	for _, op := range operations {
		switch op.Kind {
		case KindDelete:
			deletes = append(deletes, op)
		case KindDuplicate:
			duplicates = append(duplicates, op)
		case KindMove:
			moves = append(moves, op)
		}
	}

	normalized := make([]NormalizedOperation, 0, len(operations))

	for _, op := range deletes {
		normalized = append(normalized, NormalizedOperation{
			Operation: op,
			Index:     adjustedIndex(op.PageIndex, normalized),
		})
	}

	for _, op := range duplicates {
		normalized = append(normalized, NormalizedOperation{
			Operation: op,
			Index:     adjustedIndex(op.PageIndex, normalized),
		})
	}

	// Moves don't change the page count, so source and target are adjusted
	// against the same accumulator state — a move's own effect never feeds
	// back into its target.
	for _, op := range moves {
		target := adjustedIndex(op.TargetIndex, normalized)
		normalized = append(normalized, NormalizedOperation{
			Operation:   op,
			Index:       adjustedIndex(op.PageIndex, normalized),
			TargetIndex: &target,
		})
	}

	return normalized
}

// adjustedIndex shifts an enqueue-time index by the cumulative effect of the
// operations already scheduled before it. Only deletes and duplicates change
// the page count, so only they shift later indices; moves are deliberately
// excluded, which is sound as long as moves are scheduled last.
func adjustedIndex(originalIndex int, previous []NormalizedOperation) int {
	adjusted := originalIndex
	for _, prev := range previous {
		switch prev.Operation.Kind {
		case KindDelete:
			// A page removed before this position shifts it down by one.
			if prev.Index < adjusted {
				adjusted--
			}
		case KindDuplicate:
			// A page inserted at or before this position shifts it up by one.
			insertAt := prev.Index
			if prev.Operation.InsertAfter {
				insertAt++
			}
			if insertAt <= adjusted {
				adjusted++
			}
		}
	}
	return adjusted
}

package pageops

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestNormalizeIndices_EmptyQueue(t *testing.T) {
	t.Parallel()
	if got := NormalizeIndices(nil, 5); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestNormalizeIndices_InvalidQueueYieldsEmpty(t *testing.T) {
	t.Parallel()
	got := NormalizeIndices([]Operation{NewDelete(10)}, 5)
	if len(got) != 0 {
		t.Fatalf("invalid queue should yield an empty result, got %v", got)
	}
}

func TestNormalizeIndices_OutputOrderIsFixedByKind(t *testing.T) {
	t.Parallel()

	// Enqueue order deliberately interleaves the kinds; output must be all
	// deletes, then all duplicates, then all moves, each in enqueue order.
	ops := []Operation{
		NewMove(2, 0),
		NewDelete(1),
		NewDuplicate(3, true),
		NewDelete(4),
	}
	got := NormalizeIndices(ops, 10)
	if len(got) != 4 {
		t.Fatalf("expected 4 normalized operations, got %d", len(got))
	}

	wantKinds := []Kind{KindDelete, KindDelete, KindDuplicate, KindMove}
	wantIDs := []string{ops[1].ID, ops[3].ID, ops[2].ID, ops[0].ID}
	for i, n := range got {
		if n.Operation.Kind != wantKinds[i] {
			t.Errorf("position %d: kind = %q, want %q", i, n.Operation.Kind, wantKinds[i])
		}
		if n.Operation.ID != wantIDs[i] {
			t.Errorf("position %d: unexpected operation %q", i, n.Operation.ID)
		}
	}
}

func TestNormalizeIndices_DeleteShiftsLaterOperationsDown(t *testing.T) {
	t.Parallel()

	got := NormalizeIndices([]Operation{NewDelete(1), NewDuplicate(3, true)}, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 normalized operations, got %d", len(got))
	}
	if got[0].Index != 1 {
		t.Errorf("delete index = %d, want 1", got[0].Index)
	}
	if got[1].Index != 2 {
		t.Errorf("duplicate index = %d, want 2 (shifted down past the delete)", got[1].Index)
	}
}

func TestNormalizeIndices_DuplicateShiftsLaterOperationsUp(t *testing.T) {
	t.Parallel()

	got := NormalizeIndices([]Operation{NewDuplicate(1, true), NewMove(3, 0)}, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 normalized operations, got %d", len(got))
	}
	if got[0].Index != 1 {
		t.Errorf("duplicate index = %d, want 1", got[0].Index)
	}
	// The copy lands at position 2, which is at or before the move's source
	// page 3, pushing it up to 4. The target 0 is before the insertion and
	// stays put.
	if got[1].Index != 4 {
		t.Errorf("move source = %d, want 4", got[1].Index)
	}
	if got[1].TargetIndex == nil || *got[1].TargetIndex != 0 {
		t.Errorf("move target = %v, want 0", got[1].TargetIndex)
	}
}

func TestNormalizeIndices_InsertBeforeShiftsOwnPosition(t *testing.T) {
	t.Parallel()

	// insertAfter=false inserts at the source position itself, so a later
	// operation on that same position is shifted too.
	got := NormalizeIndices([]Operation{NewDuplicate(2, false), NewMove(2, 4)}, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 normalized operations, got %d", len(got))
	}
	if got[0].Index != 2 {
		t.Errorf("duplicate index = %d, want 2", got[0].Index)
	}
	if got[1].Index != 3 {
		t.Errorf("move source = %d, want 3 (shifted by the insert-before copy)", got[1].Index)
	}
	if got[1].TargetIndex == nil || *got[1].TargetIndex != 5 {
		t.Errorf("move target = %v, want 5", got[1].TargetIndex)
	}
}

func TestNormalizeIndices_InsertBeforeAdjacentDelete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		ops           []Operation
		wantDelete    int
		wantDuplicate int
	}{
		{
			name:          "delete immediately after insert-before position",
			ops:           []Operation{NewDuplicate(2, false), NewDelete(3)},
			wantDelete:    3,
			wantDuplicate: 2,
		},
		{
			name:          "delete at the insert-before position itself",
			ops:           []Operation{NewDuplicate(2, false), NewDelete(2)},
			wantDelete:    2,
			wantDuplicate: 2,
		},
		{
			name:          "delete just before insert-before position",
			ops:           []Operation{NewDuplicate(2, false), NewDelete(1)},
			wantDelete:    1,
			wantDuplicate: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeIndices(tt.ops, 5)
			if len(got) != 2 {
				t.Fatalf("expected 2 normalized operations, got %d", len(got))
			}
			// Deletes execute first regardless of enqueue order.
			if got[0].Operation.Kind != KindDelete || got[0].Index != tt.wantDelete {
				t.Errorf("delete normalized to %d, want %d", got[0].Index, tt.wantDelete)
			}
			if got[1].Operation.Kind != KindDuplicate || got[1].Index != tt.wantDuplicate {
				t.Errorf("duplicate normalized to %d, want %d", got[1].Index, tt.wantDuplicate)
			}
		})
	}
}

func TestNormalizeIndices_ComplexChain(t *testing.T) {
	t.Parallel()

	ops := []Operation{
		NewDelete(1),
		NewDelete(3),
		NewDuplicate(2, true),
		NewMove(4, 0),
	}
	got := NormalizeIndices(ops, 6)
	if len(got) != 4 {
		t.Fatalf("expected 4 normalized operations, got %d", len(got))
	}

	wantIndices := []int{1, 2, 1, 3}
	for i, want := range wantIndices {
		if got[i].Index != want {
			t.Errorf("position %d: index = %d, want %d", i, got[i].Index, want)
		}
	}
	if got[3].TargetIndex == nil || *got[3].TargetIndex != 0 {
		t.Errorf("move target = %v, want 0", got[3].TargetIndex)
	}
}

func TestNormalizeIndices_TargetIndexOnlyOnMoves(t *testing.T) {
	t.Parallel()

	ops := []Operation{NewDelete(0), NewDuplicate(1, true), NewMove(2, 3)}
	got := NormalizeIndices(ops, 5)
	if len(got) != 3 {
		t.Fatalf("expected 3 normalized operations, got %d", len(got))
	}
	for _, n := range got {
		if n.Operation.Kind == KindMove {
			if n.TargetIndex == nil {
				t.Error("move is missing its normalized target")
			}
		} else if n.TargetIndex != nil {
			t.Errorf("%s carries a normalized target", n.Operation.Kind)
		}
	}
}

// =============================================================================
// Property-based tests: normalized operations replay correctly against a
// simulated document
// =============================================================================

// drawValidQueue generates a queue that passes validation: distinct in-range
// delete indices that never empty the document, arbitrary in-range
// duplicates, and at most one move whose page has no pending delete. Moves
// are capped at one because index adjustment deliberately ignores prior
// moves (sound only while moves execute last, and only relative to
// operations that changed the page count).
func drawValidQueue(t *rapid.T, pageCount int) []Operation {
	maxDeletes := pageCount - 1
	if maxDeletes > 4 {
		maxDeletes = 4
	}
	deleteIdxs := rapid.SliceOfNDistinct(
		rapid.IntRange(0, pageCount-1), 0, maxDeletes, rapid.ID[int],
	).Draw(t, "deleteIdxs")

	deleted := make(map[int]bool, len(deleteIdxs))
	var ops []Operation
	for _, idx := range deleteIdxs {
		deleted[idx] = true
		ops = append(ops, NewDelete(idx))
	}

	// Duplicates draw only from surviving pages: duplicating a page that
	// also has a pending delete is legal but intentionally copies whichever
	// page slides into that slot, which would fail the identity check below.
	var surviving []int
	for i := 0; i < pageCount; i++ {
		if !deleted[i] {
			surviving = append(surviving, i)
		}
	}

	nDups := rapid.IntRange(0, 3).Draw(t, "nDups")
	for i := 0; i < nDups; i++ {
		idx := rapid.SampledFrom(surviving).Draw(t, fmt.Sprintf("dupIdx%d", i))
		after := rapid.Bool().Draw(t, fmt.Sprintf("dupAfter%d", i))
		ops = append(ops, NewDuplicate(idx, after))
	}

	if rapid.Bool().Draw(t, "withMove") {
		src := rapid.IntRange(0, pageCount-1).Draw(t, "moveSrc")
		if !deleted[src] {
			target := rapid.IntRange(0, pageCount-1).Draw(t, "moveTarget")
			ops = append(ops, NewMove(src, target))
		}
	}
	return ops
}

// replay applies normalized operations to a slice of page identities,
// mirroring what an executor does one operation at a time.
func replay(t *rapid.T, pageCount int, normalized []NormalizedOperation) []int {
	pages := make([]int, pageCount)
	for i := range pages {
		pages[i] = i
	}

	for _, n := range normalized {
		if n.Index < 0 || n.Index >= len(pages) {
			t.Fatalf("%s index %d out of range for %d pages", n.Operation.Kind, n.Index, len(pages))
		}
		switch n.Operation.Kind {
		case KindDelete:
			if pages[n.Index] != n.Operation.PageIndex {
				t.Fatalf("delete removed page %d, enqueued against page %d", pages[n.Index], n.Operation.PageIndex)
			}
			pages = append(pages[:n.Index], pages[n.Index+1:]...)
		case KindDuplicate:
			if pages[n.Index] != n.Operation.PageIndex {
				t.Fatalf("duplicate copied page %d, enqueued against page %d", pages[n.Index], n.Operation.PageIndex)
			}
			insertAt := n.Index
			if n.Operation.InsertAfter {
				insertAt++
			}
			pages = append(pages, 0)
			copy(pages[insertAt+1:], pages[insertAt:])
			pages[insertAt] = n.Operation.PageIndex
		case KindMove:
			if pages[n.Index] != n.Operation.PageIndex {
				t.Fatalf("move relocated page %d, enqueued against page %d", pages[n.Index], n.Operation.PageIndex)
			}
			page := pages[n.Index]
			pages = append(pages[:n.Index], pages[n.Index+1:]...)
			to := *n.TargetIndex
			if to > len(pages) {
				to = len(pages)
			}
			pages = append(pages, 0)
			copy(pages[to+1:], pages[to:])
			pages[to] = page
		}
	}
	return pages
}

func testNormalizeIndices_ReplayTouchesIntendedPages(t *rapid.T) {
	pageCount := rapid.IntRange(1, 8).Draw(t, "pageCount")
	ops := drawValidQueue(t, pageCount)

	result := Validate(ops, pageCount)
	if !result.IsValid {
		t.Fatalf("generator produced an invalid queue: %v", result.Errors)
	}

	normalized := NormalizeIndices(ops, pageCount)
	if len(normalized) != len(ops) {
		t.Fatalf("normalized %d of %d operations", len(normalized), len(ops))
	}

	var deletes, duplicates int
	for _, op := range ops {
		switch op.Kind {
		case KindDelete:
			deletes++
		case KindDuplicate:
			duplicates++
		}
	}

	pages := replay(t, pageCount, normalized)
	if want := pageCount - deletes + duplicates; len(pages) != want {
		t.Fatalf("expected %d pages after replay, got %d", want, len(pages))
	}
}

func TestNormalizeIndices_ReplayTouchesIntendedPages(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testNormalizeIndices_ReplayTouchesIntendedPages)
}

func testNormalizeIndices_IsDeterministic(t *rapid.T) {
	pageCount := rapid.IntRange(1, 8).Draw(t, "pageCount")
	ops := drawValidQueue(t, pageCount)

	first := NormalizeIndices(ops, pageCount)
	second := NormalizeIndices(ops, pageCount)
	if len(first) != len(second) {
		t.Fatalf("result length diverged: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Operation.ID != second[i].Operation.ID || first[i].Index != second[i].Index {
			t.Fatalf("position %d diverged: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestNormalizeIndices_IsDeterministic(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testNormalizeIndices_IsDeterministic)
}

// Package history implements a linear undo/redo journal.
//
// A History holds snapshots of a value together with a cursor pointing at the
// live one. Setting a value that is structurally equal to the current entry
// is a no-op, so gestures that end where they started leave no trace.
// Setting anything else discards the redo branch. Undo and redo at the ends
// of the journal are silent no-ops.
//
// History does not copy values. Callers store immutable snapshots, which the
// photo and layout packages produce by building new slices on every edit.
//
// A History is not safe for concurrent use; the session controller that owns
// it serializes access.
package history

// History is a linear journal of snapshots of T.
type History[T any] struct {
	entries []T
	cursor  int
	rev     uint64
	equal   func(a, b T) bool
}

// New creates a journal holding a single entry. The equal function decides
// when a Set is redundant.
func New[T any](initial T, equal func(a, b T) bool) *History[T] {
	return &History[T]{
		entries: []T{initial},
		equal:   equal,
	}
}

// Current returns the entry under the cursor.
func (h *History[T]) Current() T {
	return h.entries[h.cursor]
}

// Set records v as the new current entry and reports whether an entry was
// added.
func (h *History[T]) Set(v T) bool {
	if h.equal != nil && h.equal(h.entries[h.cursor], v) {
		return false
	}
	// Clear the tail so the dropped entries do not stay reachable through
	// the backing array.
	var zero T
	for i := h.cursor + 1; i < len(h.entries); i++ {
		h.entries[i] = zero
	}
	h.entries = append(h.entries[:h.cursor+1], v)
	h.cursor++
	h.rev++
	return true
}

// Undo moves the cursor back one entry and reports whether it moved.
func (h *History[T]) Undo() bool {
	if h.cursor == 0 {
		return false
	}
	h.cursor--
	h.rev++
	return true
}

// Redo moves the cursor forward one entry and reports whether it moved.
func (h *History[T]) Redo() bool {
	if h.cursor >= len(h.entries)-1 {
		return false
	}
	h.cursor++
	h.rev++
	return true
}

// Reset replaces the whole journal with v. Nothing before it can be undone.
func (h *History[T]) Reset(v T) {
	h.entries = []T{v}
	h.cursor = 0
	h.rev++
}

// CanUndo reports whether Undo would move the cursor.
func (h *History[T]) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would move the cursor.
func (h *History[T]) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Len returns the number of entries.
func (h *History[T]) Len() int { return len(h.entries) }

// Cursor returns the index of the current entry.
func (h *History[T]) Cursor() int { return h.cursor }

// Revision changes every time the current entry may have changed: on every
// Set that adds an entry, Undo, Redo and Reset.
func (h *History[T]) Revision() uint64 { return h.rev }

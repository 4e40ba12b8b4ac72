package history

import (
	"slices"
	"testing"
)

func newInts(initial ...int) *History[[]int] {
	return New(initial, func(a, b []int) bool { return slices.Equal(a, b) })
}

func TestSetAppends(t *testing.T) {
	h := newInts(1)

	if !h.Set([]int{1, 2}) {
		t.Fatal("Set() = false, want true")
	}
	if h.Len() != 2 || h.Cursor() != 1 {
		t.Errorf("Len/Cursor = %d/%d, want 2/1", h.Len(), h.Cursor())
	}
	if !slices.Equal(h.Current(), []int{1, 2}) {
		t.Errorf("Current() = %v, want [1 2]", h.Current())
	}
}

func TestSetDuplicateIsNoop(t *testing.T) {
	h := newInts(1)

	h.Set([]int{1, 2})
	if h.Set([]int{1, 2}) {
		t.Error("second identical Set() = true, want false")
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}

	// Structural, not identity: a fresh slice with equal contents is a no-op.
	if h.Set(append([]int(nil), 1, 2)) {
		t.Error("structurally equal Set() = true, want false")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h := newInts(0)
	h.Set([]int{1})
	h.Set([]int{2})

	before := h.Current()
	if !h.Undo() {
		t.Fatal("Undo() = false")
	}
	if !slices.Equal(h.Current(), []int{1}) {
		t.Errorf("after Undo Current() = %v, want [1]", h.Current())
	}
	if !h.Redo() {
		t.Fatal("Redo() = false")
	}
	if !slices.Equal(h.Current(), before) {
		t.Errorf("after Redo Current() = %v, want %v", h.Current(), before)
	}
}

func TestNewEditDiscardsRedo(t *testing.T) {
	h := newInts(0)
	h.Set([]int{1})
	h.Set([]int{2})
	h.Undo()

	h.Set([]int{3})

	if h.CanRedo() {
		t.Error("CanRedo() = true after a fresh edit")
	}
	if h.Redo() {
		t.Error("Redo() = true after a fresh edit")
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	if !slices.Equal(h.Current(), []int{3}) {
		t.Errorf("Current() = %v, want [3]", h.Current())
	}
}

func TestBoundariesAreSilent(t *testing.T) {
	h := newInts(0)

	if h.Undo() {
		t.Error("Undo() at start = true")
	}
	if h.Redo() {
		t.Error("Redo() at end = true")
	}
	if h.Cursor() != 0 || h.Len() != 1 {
		t.Errorf("Len/Cursor = %d/%d, want 1/0", h.Len(), h.Cursor())
	}
}

func TestReset(t *testing.T) {
	h := newInts(0)
	h.Set([]int{1})
	h.Set([]int{2})

	h.Reset([]int{9})

	if h.Len() != 1 || h.Cursor() != 0 {
		t.Errorf("Len/Cursor = %d/%d, want 1/0", h.Len(), h.Cursor())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("Reset journal should be neither undoable nor redoable")
	}
	if !slices.Equal(h.Current(), []int{9}) {
		t.Errorf("Current() = %v, want [9]", h.Current())
	}
}

func TestSetAfterUndoToEqualCurrent(t *testing.T) {
	h := newInts(0)
	h.Set([]int{1})
	h.Undo()

	// Equal to the entry under the cursor: nothing changes, redo survives.
	if h.Set([]int{0}) {
		t.Error("Set() equal to current = true")
	}
	if !h.CanRedo() {
		t.Error("CanRedo() = false, redo branch should survive a no-op Set")
	}
}

func TestNilEqualAlwaysAppends(t *testing.T) {
	h := New[int](1, nil)
	h.Set(1)
	h.Set(1)
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestRevision(t *testing.T) {
	h := newInts(0)
	seen := map[uint64]bool{h.Revision(): true}
	step := func(name string, changed bool) {
		t.Helper()
		rev := h.Revision()
		if seen[rev] != !changed {
			t.Errorf("%s: revision %d, changed = %v", name, rev, changed)
		}
		seen[rev] = true
	}

	h.Set([]int{1})
	step("set", true)
	h.Set([]int{1})
	step("equal set", false)
	h.Undo()
	step("undo", true)
	h.Undo()
	step("undo at start", false)
	h.Set([]int{1})
	// Same cursor and length as before the undo, but a new entry.
	step("set after undo", true)
	h.Redo()
	step("redo at end", false)
	h.Reset([]int{0})
	step("reset", true)
}

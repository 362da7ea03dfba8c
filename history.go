package pipeline

// historyLimit caps the past stack; the oldest snapshot is dropped on
// overflow.
const historyLimit = 50

// History maintains bounded past/future stacks of graph snapshots for
// undo/redo. Snapshots hold only the persistent fields (nodes, edges, name);
// selection and execution state never enter history.
type History struct {
	past   []Graph
	future []Graph
	limit  int
}

// NewHistory returns a history with the default snapshot cap.
func NewHistory() *History {
	return &History{limit: historyLimit}
}

// Record pushes the pre-mutation state onto the past stack and clears the
// future stack. If the state is structurally identical to the top of past
// nothing is pushed, so no-op-equivalent edits don't grow the stack.
func (h *History) Record(g Graph) {
	if len(h.past) > 0 && h.past[len(h.past)-1].Equal(g) {
		return
	}
	h.past = append(h.past, g.Clone())
	if len(h.past) > h.limit {
		h.past = h.past[1:]
	}
	h.future = nil
}

// Undo pops the past stack, pushes current onto future, and returns the
// popped snapshot. It reports false (and returns the zero Graph) when there
// is nothing to undo.
func (h *History) Undo(current Graph) (Graph, bool) {
	if len(h.past) == 0 {
		return Graph{}, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current.Clone())
	return prev, true
}

// Redo is the mirror of Undo.
func (h *History) Redo(current Graph) (Graph, bool) {
	if len(h.future) == 0 {
		return Graph{}, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current.Clone())
	return next, true
}

// CanUndo reports whether an undo is possible.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether a redo is possible.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

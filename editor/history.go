package editor

import "caseforge/core"

// history is a snapshot-stack undo/redo. Every mutation pushes a full clone
// of the pre-mutation document; N undos followed by N redos restore the
// document byte-for-byte.
type history struct {
	undo []*core.DesignDocument
	redo []*core.DesignDocument
}

const maxHistoryDepth = 100

// record pushes the pre-mutation state and invalidates the redo stack.
func (h *history) record(doc *core.DesignDocument) {
	h.undo = append(h.undo, doc.Clone())
	if len(h.undo) > maxHistoryDepth {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

// stepBack swaps the current document for the most recent undo snapshot.
// Returns nil when there is nothing to undo.
func (h *history) stepBack(current *core.DesignDocument) *core.DesignDocument {
	if len(h.undo) == 0 {
		return nil
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current.Clone())
	return top
}

// stepForward swaps the current document for the most recent redo snapshot.
func (h *history) stepForward(current *core.DesignDocument) *core.DesignDocument {
	if len(h.redo) == 0 {
		return nil
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current.Clone())
	return top
}

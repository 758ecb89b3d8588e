package state

// HistoryState is the linearized form of a History: every action, sentinel
// included, plus the cursor position. A nil Current means "no cursor known".
type HistoryState struct {
	Actions []Action
	Current *int
}

// History is an undo/redo sequence anchored at an Initial sentinel. The
// cursor points at the most recently applied action.
type History struct {
	actions []Action
	cursor  int
}

func sentinel() Action {
	return Action{ID: "initial", Type: ActionInitial}
}

// NewHistory returns a history holding only the sentinel.
func NewHistory() *History {
	h := &History{}
	h.Reset()
	return h
}

// Reset drops everything but the sentinel.
func (h *History) Reset() {
	h.actions = []Action{sentinel()}
	h.cursor = 0
}

// AddAction appends a after the cursor, discarding any redo tail.
func (h *History) AddAction(a Action) {
	h.actions = append(h.actions[:h.cursor+1], a)
	h.cursor++
}

// PeekUndo returns the action Undo would undo, without moving.
func (h *History) PeekUndo() *Action {
	if h.cursor == 0 {
		return nil
	}
	a := h.actions[h.cursor]
	return &a
}

// Undo steps back and returns the action that was just undone. Callers
// apply its Prev snapshot.
func (h *History) Undo() *Action {
	a := h.PeekUndo()
	if a != nil {
		h.cursor--
	}
	return a
}

// PeekRedo returns the action Redo would reapply, without moving.
func (h *History) PeekRedo() *Action {
	if h.cursor+1 >= len(h.actions) {
		return nil
	}
	a := h.actions[h.cursor+1]
	return &a
}

// Redo steps forward and returns the newly current action. Callers apply its
// New snapshot.
func (h *History) Redo() *Action {
	a := h.PeekRedo()
	if a != nil {
		h.cursor++
	}
	return a
}

// Remove drops the action with id, keeping the cursor on the same entry when
// it was after the removed one. It reports whether anything was removed.
func (h *History) Remove(id string) bool {
	for i := 1; i < len(h.actions); i++ {
		if h.actions[i].ID != id {
			continue
		}
		h.actions = append(h.actions[:i], h.actions[i+1:]...)
		if i <= h.cursor {
			h.cursor--
		}
		return true
	}
	return false
}

// Len counts the actions, sentinel included.
func (h *History) Len() int { return len(h.actions) }

// Cursor is the index of the current action; 0 is the sentinel.
func (h *History) Cursor() int { return h.cursor }

// Export linearizes the history.
func (h *History) Export() HistoryState {
	actions := make([]Action, len(h.actions))
	copy(actions, h.actions)
	cursor := h.cursor
	return HistoryState{Actions: actions, Current: &cursor}
}

// Import replaces the history with st. An empty list or a missing cursor
// resets to the sentinel. A list that does not start with the sentinel gets
// one prepended; an out-of-range cursor is clamped.
func (h *History) Import(st HistoryState) {
	h.Reset()
	if len(st.Actions) == 0 || st.Current == nil {
		return
	}
	cursor := *st.Current
	actions := st.Actions
	if actions[0].Type != ActionInitial {
		actions = append([]Action{sentinel()}, actions...)
		cursor++
	} else {
		actions = append([]Action(nil), actions...)
	}
	h.actions = actions
	h.cursor = max(0, min(cursor, len(actions)-1))
}

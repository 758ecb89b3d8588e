package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalBoard/internal/shape"
)

func rect(id, owner string) shape.Shape {
	return shape.New(shape.Rectangle, id, []shape.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, shape.Black, 2, owner)
}

func TestHistoryStartsAtSentinel(t *testing.T) {
	h := NewHistory()
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 0, h.Cursor())
	assert.Nil(t, h.PeekUndo())
	assert.Nil(t, h.Undo())
	assert.Nil(t, h.PeekRedo())
	assert.Nil(t, h.Redo())
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory()
	a1 := CreateAction(rect("r1", "c1"))
	a2 := CreateAction(rect("r2", "c1"))
	h.AddAction(a1)
	h.AddAction(a2)

	require.NotNil(t, h.PeekUndo())
	assert.Equal(t, a2.ID, h.PeekUndo().ID)
	assert.Equal(t, 2, h.Cursor(), "peek must not move the cursor")

	undone := h.Undo()
	require.NotNil(t, undone)
	assert.Equal(t, a2.ID, undone.ID, "undo returns the action at the old cursor")
	assert.Equal(t, a2.ID, h.PeekRedo().ID)

	assert.Equal(t, a1.ID, h.Undo().ID)
	assert.Nil(t, h.Undo(), "cannot undo past the sentinel")
	assert.Equal(t, 0, h.Cursor())

	redone := h.Redo()
	require.NotNil(t, redone)
	assert.Equal(t, a1.ID, redone.ID)
	assert.Equal(t, a2.ID, h.Redo().ID)
	assert.Nil(t, h.Redo())
}

func TestHistoryAddTruncatesRedoTail(t *testing.T) {
	h := NewHistory()
	h.AddAction(CreateAction(rect("r1", "c1")))
	h.AddAction(CreateAction(rect("r2", "c1")))
	h.Undo()
	require.NotNil(t, h.PeekRedo())

	a3 := CreateAction(rect("r3", "c1"))
	h.AddAction(a3)

	assert.Nil(t, h.PeekRedo())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, a3.ID, h.PeekUndo().ID)
}

func TestHistoryRemove(t *testing.T) {
	h := NewHistory()
	a1 := CreateAction(rect("r1", "c1"))
	a2 := CreateAction(rect("r2", "c1"))
	a3 := CreateAction(rect("r3", "c1"))
	h.AddAction(a1)
	h.AddAction(a2)
	h.AddAction(a3)
	h.Undo()

	assert.False(t, h.Remove("initial"))
	assert.False(t, h.Remove("nope"))

	require.True(t, h.Remove(a1.ID))
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, a2.ID, h.PeekUndo().ID)
	assert.Equal(t, a3.ID, h.PeekRedo().ID)

	require.True(t, h.Remove(a3.ID))
	assert.Nil(t, h.PeekRedo())
	assert.Equal(t, a2.ID, h.PeekUndo().ID)

	require.True(t, h.Remove(a2.ID))
	assert.Nil(t, h.PeekUndo())
	assert.Equal(t, 0, h.Cursor())
}

func TestHistoryExportImport(t *testing.T) {
	h := NewHistory()
	h.AddAction(CreateAction(rect("r1", "c1")))
	h.AddAction(CreateAction(rect("r2", "c1")))
	h.Undo()

	st := h.Export()
	require.NotNil(t, st.Current)
	assert.Equal(t, 1, *st.Current)
	assert.Len(t, st.Actions, 3)

	restored := NewHistory()
	restored.Import(st)
	assert.Equal(t, h.Export(), restored.Export())
	assert.Equal(t, st.Actions[2].ID, restored.PeekRedo().ID)
}

func TestHistoryImportEdgeCases(t *testing.T) {
	a := CreateAction(rect("r1", "c1"))
	one := 1
	huge := 99

	tests := []struct {
		name    string
		state   HistoryState
		wantLen int
		wantCur int
	}{
		{"empty list", HistoryState{Current: &one}, 1, 0},
		{"missing index", HistoryState{Actions: []Action{sentinel(), a}}, 1, 0},
		{"no sentinel", HistoryState{Actions: []Action{a}, Current: new(int)}, 2, 1},
		{"index clamped", HistoryState{Actions: []Action{sentinel(), a}, Current: &huge}, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory()
			h.AddAction(CreateAction(rect("old", "c1")))
			h.Import(tt.state)
			assert.Equal(t, tt.wantLen, h.Len())
			assert.Equal(t, tt.wantCur, h.Cursor())
		})
	}
}

func TestHistoryUndoRedoRestoresBoard(t *testing.T) {
	b := NewBoard()
	h := NewHistory()
	r := rect("r1", "c1")

	create := CreateAction(r)
	b.Apply(create)
	h.AddAction(create)

	undone := h.Undo()
	require.NotNil(t, undone)
	inv, ok := Inverse(*undone, "c1")
	require.True(t, ok)
	b.Apply(inv)
	got, _ := b.Get("r1")
	assert.True(t, got.IsDeleted)

	redone := h.Redo()
	require.NotNil(t, redone)
	b.Apply(*redone)
	got, _ = b.Get("r1")
	assert.Equal(t, r, got)
}

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalBoard/internal/shape"
)

func TestInverse(t *testing.T) {
	r := rect("r1", "c1")
	moved := r.WithMove(shape.Point{X: 5, Y: 5}, shape.Rect{Width: 100, Height: 100}, "c2")
	deleted := r.WithDelete("c1")
	restored := deleted.WithResurrect("c1")

	create := CreateAction(r)
	modify := ModifyAction(r, moved)
	del := NewAction(ActionDelete, &r, &deleted)
	res := NewAction(ActionResurrect, &deleted, &restored)

	tests := []struct {
		name     string
		action   Action
		wantType ActionType
		wantPrev shape.Shape
		wantNew  shape.Shape
	}{
		{"create", create, ActionDelete, r, r.WithDelete("me")},
		{"delete", del, ActionResurrect, deleted, r},
		{"modify", modify, ActionModify, moved, r},
		{"resurrect", res, ActionDelete, restored, restored.WithDelete("me")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := Inverse(tt.action, "me")
			require.True(t, ok)
			assert.Equal(t, tt.action.ID, inv.ID)
			assert.Equal(t, tt.wantType, inv.Type)
			assert.Equal(t, tt.wantPrev, *inv.Prev)
			assert.Equal(t, tt.wantNew, *inv.New)
		})
	}
}

func TestInverseRejectsIncompleteActions(t *testing.T) {
	_, ok := Inverse(sentinel(), "me")
	assert.False(t, ok)

	r := rect("r1", "c1")
	_, ok = Inverse(Action{ID: "x", Type: ActionModify, New: &r}, "me")
	assert.False(t, ok)
}

func TestReapplyEndsAtOriginal(t *testing.T) {
	r := rect("r1", "c1")
	moved := r.WithMove(shape.Point{X: 1}, shape.Rect{Width: 100, Height: 100}, "c1")

	for _, a := range []Action{CreateAction(r), ModifyAction(r, moved), DeleteAction(r, "c1"), ResurrectAction(r.WithDelete("c1"), "c1")} {
		t.Run(a.Type.String(), func(t *testing.T) {
			inv, ok := Inverse(a, "c1")
			require.True(t, ok)
			redo, ok := Reapply(a, "c1")
			require.True(t, ok)

			assert.Equal(t, a.ID, redo.ID)
			assert.Equal(t, *inv.New, *redo.Prev, "redo starts where undo left off")
			assert.Equal(t, *a.New, *redo.New)
		})
	}

	redo, _ := Reapply(CreateAction(r), "c1")
	assert.Equal(t, ActionResurrect, redo.Type)
}

func TestActionShapeIDAndEditor(t *testing.T) {
	r := rect("r1", "c1")
	assert.Equal(t, "r1", CreateAction(r).ShapeID())
	assert.Equal(t, "c2", DeleteAction(r, "c2").Editor())
	assert.Equal(t, "r1", Action{Type: ActionDelete, Prev: &r}.ShapeID())
	assert.Equal(t, "", sentinel().ShapeID())
}

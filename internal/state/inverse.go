package state

// Inverse derives the action that undoes a. The result keeps a's id so the
// originator can recognise the echo. editor stamps the tombstones the inverse
// has to create; Modify and Delete inverses restore the stored snapshot as is.
// The second result is false for actions that cannot be inverted.
func Inverse(a Action, editor string) (Action, bool) {
	switch a.Type {
	case ActionCreate:
		if a.New == nil {
			return Action{}, false
		}
		prev := *a.New
		next := a.New.WithDelete(editor)
		return Action{ID: a.ID, Type: ActionDelete, Prev: &prev, New: &next}, true
	case ActionDelete:
		if a.New == nil || a.Prev == nil {
			return Action{}, false
		}
		prev, next := *a.New, *a.Prev
		return Action{ID: a.ID, Type: ActionResurrect, Prev: &prev, New: &next}, true
	case ActionModify:
		if a.New == nil || a.Prev == nil {
			return Action{}, false
		}
		prev, next := *a.New, *a.Prev
		return Action{ID: a.ID, Type: ActionModify, Prev: &prev, New: &next}, true
	case ActionResurrect:
		if a.New == nil {
			return Action{}, false
		}
		prev := *a.New
		next := a.New.WithDelete(editor)
		return Action{ID: a.ID, Type: ActionDelete, Prev: &prev, New: &next}, true
	}
	return Action{}, false
}

// Reapply derives the action that redoes a after Inverse(a, editor) was
// applied: it starts from the state the inverse left behind and ends at a.New.
func Reapply(a Action, editor string) (Action, bool) {
	inv, ok := Inverse(a, editor)
	if !ok {
		return Action{}, false
	}
	t := a.Type
	if t == ActionCreate {
		t = ActionResurrect
	}
	prev, next := *inv.New, *a.New
	return Action{ID: a.ID, Type: t, Prev: &prev, New: &next}, true
}

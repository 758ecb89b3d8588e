package state

import (
	"fmt"

	"LocalBoard/internal/shape"
)

// ActionType is the kind of transition an Action records.
type ActionType int

const (
	ActionInitial ActionType = iota
	ActionCreate
	ActionModify
	ActionDelete
	ActionResurrect
)

var actionTypeNames = map[ActionType]string{
	ActionInitial:   "Initial",
	ActionCreate:    "Create",
	ActionModify:    "Modify",
	ActionDelete:    "Delete",
	ActionResurrect: "Resurrect",
}

func (t ActionType) String() string {
	if name, ok := actionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ActionType(%d)", int(t))
}

// ParseActionType maps a wire tag to its ActionType.
func ParseActionType(s string) (ActionType, bool) {
	for t, name := range actionTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Action records one shape going from Prev to New. Create has no Prev; the
// Initial sentinel has neither.
type Action struct {
	ID   string
	Type ActionType
	Prev *shape.Shape
	New  *shape.Shape
}

// NewAction stamps a fresh id on a transition.
func NewAction(t ActionType, prev, next *shape.Shape) Action {
	return Action{ID: NewActionID(), Type: t, Prev: prev, New: next}
}

// CreateAction records a freshly drawn shape.
func CreateAction(s shape.Shape) Action {
	return NewAction(ActionCreate, nil, &s)
}

// ModifyAction records prev being replaced by next.
func ModifyAction(prev, next shape.Shape) Action {
	return NewAction(ActionModify, &prev, &next)
}

// DeleteAction tombstones prev on behalf of editor.
func DeleteAction(prev shape.Shape, editor string) Action {
	next := prev.WithDelete(editor)
	return NewAction(ActionDelete, &prev, &next)
}

// ResurrectAction brings a tombstoned prev back on behalf of editor.
func ResurrectAction(prev shape.Shape, editor string) Action {
	next := prev.WithResurrect(editor)
	return NewAction(ActionResurrect, &prev, &next)
}

// ShapeID is the id of the shape the action is about, or "" when the action
// carries no snapshot.
func (a Action) ShapeID() string {
	if a.New != nil && a.New.ID != "" {
		return a.New.ID
	}
	if a.Prev != nil {
		return a.Prev.ID
	}
	return ""
}

// Editor is the owner token stamped by whoever produced the action.
func (a Action) Editor() string {
	if a.New != nil {
		return a.New.LastModifiedBy
	}
	if a.Prev != nil {
		return a.Prev.LastModifiedBy
	}
	return ""
}

// MessageType tags a network envelope.
type MessageType int

const (
	MessageNormal MessageType = iota + 1
	MessageUndo
	MessageRedo
	MessageRestore
	MessageRequestShapes
)

var messageTypeNames = map[MessageType]string{
	MessageNormal:        "Normal",
	MessageUndo:          "Undo",
	MessageRedo:          "Redo",
	MessageRestore:       "Restore",
	MessageRequestShapes: "RequestShapes",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(%d)", int(t))
}

// ParseMessageType maps a wire tag to its MessageType.
func ParseMessageType(s string) (MessageType, bool) {
	for t, name := range messageTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Envelope is the message exchanged between host and clients. Normal, Undo
// and Redo carry an Action; Restore carries a serialized shape map and
// RequestShapes the requesting endpoint.
type Envelope struct {
	Type    MessageType
	Action  *Action
	Payload *string
}

// ActionEnvelope wraps a for transmission.
func ActionEnvelope(t MessageType, a Action) Envelope {
	return Envelope{Type: t, Action: &a}
}

// PayloadEnvelope wraps a raw payload.
func PayloadEnvelope(t MessageType, payload string) Envelope {
	return Envelope{Type: t, Payload: &payload}
}

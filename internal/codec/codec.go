// Package codec maps shapes, actions, histories, shape maps and envelopes to
// and from their JSON wire form. The conversion between domain values and
// wire objects is written out field by field; encoding/json only sees the
// wire structs. Decoders never fail loudly: malformed or unknown input comes
// back as ok == false and the caller drops the message.
package codec

import (
	"encoding/json"
	"math"
	"unicode/utf8"

	"LocalBoard/internal/shape"
	"LocalBoard/internal/state"
)

type wirePoint struct {
	X int `json:"X"`
	Y int `json:"Y"`
}

type wireShape struct {
	ShapeID        string      `json:"ShapeId"`
	Type           string      `json:"Type"`
	Points         []wirePoint `json:"Points"`
	Color          string      `json:"Color"`
	Thickness      float64     `json:"Thickness"`
	CreatedBy      string      `json:"CreatedBy"`
	LastModifiedBy string      `json:"LastModifiedBy"`
	IsDeleted      bool        `json:"IsDeleted"`
}

type wireAction struct {
	ActionID   string     `json:"ActionId"`
	ActionType string     `json:"ActionType"`
	Prev       *wireShape `json:"Prev"`
	Next       *wireShape `json:"Next"`
}

type wireHistory struct {
	Actions      []wireAction `json:"Actions"`
	CurrentIndex *int         `json:"CurrentIndex"`
}

type wireEnvelope struct {
	MessageType string      `json:"MessageType"`
	Action      *wireAction `json:"Action,omitempty"`
	Payload     *string     `json:"Payload,omitempty"`
}

func toWireShape(s shape.Shape) wireShape {
	points := make([]wirePoint, len(s.Points))
	for i, p := range s.Points {
		points[i] = wirePoint{X: p.X, Y: p.Y}
	}
	return wireShape{
		ShapeID:        s.ID,
		Type:           s.Kind.String(),
		Points:         points,
		Color:          s.Color.String(),
		Thickness:      finite(s.Thickness),
		CreatedBy:      s.CreatedBy,
		LastModifiedBy: s.LastModifiedBy,
		IsDeleted:      s.IsDeleted,
	}
}

// finite maps NaN and infinities, which JSON cannot carry, to zero.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func fromWireShape(w wireShape) (shape.Shape, bool) {
	kind, ok := shape.ParseKind(w.Type)
	if !ok {
		return shape.Shape{}, false
	}
	color, err := shape.ParseColor(w.Color)
	if err != nil {
		return shape.Shape{}, false
	}
	var points []shape.Point
	if len(w.Points) > 0 {
		points = make([]shape.Point, len(w.Points))
		for i, p := range w.Points {
			points[i] = shape.Point{X: p.X, Y: p.Y}
		}
	}
	return shape.Shape{
		ID:             w.ShapeID,
		Kind:           kind,
		Points:         points,
		Color:          color,
		Thickness:      w.Thickness,
		CreatedBy:      w.CreatedBy,
		LastModifiedBy: w.LastModifiedBy,
		IsDeleted:      w.IsDeleted,
	}, true
}

func toWireShapePtr(s *shape.Shape) *wireShape {
	if s == nil {
		return nil
	}
	w := toWireShape(*s)
	return &w
}

// fromWireShapePtr keeps nil as nil; a present but undecodable shape fails.
func fromWireShapePtr(w *wireShape) (*shape.Shape, bool) {
	if w == nil {
		return nil, true
	}
	s, ok := fromWireShape(*w)
	if !ok {
		return nil, false
	}
	return &s, true
}

func toWireAction(a state.Action) wireAction {
	return wireAction{
		ActionID:   a.ID,
		ActionType: a.Type.String(),
		Prev:       toWireShapePtr(a.Prev),
		Next:       toWireShapePtr(a.New),
	}
}

func fromWireAction(w wireAction) (state.Action, bool) {
	t, ok := state.ParseActionType(w.ActionType)
	if !ok {
		return state.Action{}, false
	}
	prev, ok := fromWireShapePtr(w.Prev)
	if !ok {
		return state.Action{}, false
	}
	next, ok := fromWireShapePtr(w.Next)
	if !ok {
		return state.Action{}, false
	}
	id := w.ActionID
	if id == "" {
		id = state.NewActionID()
	}
	return state.Action{ID: id, Type: t, Prev: prev, New: next}, true
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// wire structs hold only strings, finite numbers and bools
		panic("codec: " + err.Error())
	}
	return string(data)
}

func unmarshal(text string, v any) bool {
	if text == "" {
		return false
	}
	return json.Unmarshal([]byte(text), v) == nil
}

// EncodeShape renders s as a wire object.
func EncodeShape(s shape.Shape) string {
	return marshal(toWireShape(s))
}

// DecodeShape parses a wire shape. Unknown kinds yield ok == false.
func DecodeShape(text string) (shape.Shape, bool) {
	var w wireShape
	if !unmarshal(text, &w) {
		return shape.Shape{}, false
	}
	return fromWireShape(w)
}

// EncodeAction renders a with its snapshots embedded.
func EncodeAction(a state.Action) string {
	return marshal(toWireAction(a))
}

// DecodeAction parses a wire action. Unknown action types yield ok == false.
func DecodeAction(text string) (state.Action, bool) {
	var w wireAction
	if !unmarshal(text, &w) {
		return state.Action{}, false
	}
	return fromWireAction(w)
}

// EncodeHistory renders a linearized history.
func EncodeHistory(st state.HistoryState) string {
	w := wireHistory{Actions: make([]wireAction, len(st.Actions))}
	for i, a := range st.Actions {
		w.Actions[i] = toWireAction(a)
	}
	if st.Current != nil {
		cur := *st.Current
		w.CurrentIndex = &cur
	}
	return marshal(w)
}

// DecodeHistory parses a history snapshot. Any undecodable entry rejects the
// whole snapshot, since dropping one would shift the cursor.
func DecodeHistory(text string) (state.HistoryState, bool) {
	var w wireHistory
	if !unmarshal(text, &w) {
		return state.HistoryState{}, false
	}
	st := state.HistoryState{Current: w.CurrentIndex}
	if len(w.Actions) > 0 {
		st.Actions = make([]state.Action, len(w.Actions))
	}
	for i, wa := range w.Actions {
		a, ok := fromWireAction(wa)
		if !ok {
			return state.HistoryState{}, false
		}
		st.Actions[i] = a
	}
	return st, true
}

// EncodeShapeMap renders an id -> shape mapping. Keys come out sorted.
func EncodeShapeMap(shapes map[string]shape.Shape) string {
	w := make(map[string]wireShape, len(shapes))
	for id, s := range shapes {
		w[id] = toWireShape(s)
	}
	return marshal(w)
}

// DecodeShapeMap parses a shape map. Entries with an unknown kind are
// skipped.
func DecodeShapeMap(text string) (map[string]shape.Shape, bool) {
	var w map[string]wireShape
	if !unmarshal(text, &w) || w == nil {
		return nil, false
	}
	out := make(map[string]shape.Shape, len(w))
	for id, ws := range w {
		if s, ok := fromWireShape(ws); ok {
			out[id] = s
		}
	}
	return out, true
}

// EncodeEnvelope renders a network envelope.
func EncodeEnvelope(e state.Envelope) string {
	w := wireEnvelope{MessageType: e.Type.String(), Payload: e.Payload}
	if e.Action != nil {
		wa := toWireAction(*e.Action)
		w.Action = &wa
	}
	return marshal(w)
}

// DecodeEnvelope parses a network envelope. An unknown message type or an
// undecodable embedded action yields ok == false.
func DecodeEnvelope(text string) (state.Envelope, bool) {
	var w wireEnvelope
	if !unmarshal(text, &w) {
		return state.Envelope{}, false
	}
	t, ok := state.ParseMessageType(w.MessageType)
	if !ok {
		return state.Envelope{}, false
	}
	e := state.Envelope{Type: t, Payload: w.Payload}
	if w.Action != nil {
		a, ok := fromWireAction(*w.Action)
		if !ok {
			return state.Envelope{}, false
		}
		e.Action = &a
	}
	return e, true
}

// ToBytes transcodes wire text for byte-oriented transports.
func ToBytes(text string) []byte {
	return []byte(text)
}

// FromBytes transcodes received bytes back to wire text. Invalid UTF-8 is
// rejected.
func FromBytes(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

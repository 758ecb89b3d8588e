package collab

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"LocalBoard/internal/codec"
	"LocalBoard/internal/net"
	"LocalBoard/internal/shape"
	"LocalBoard/internal/state"
)

// ErrBadSnapshot is returned when a serialized shape map cannot be decoded.
var ErrBadSnapshot = errors.New("malformed shape map")

// Host owns the canonical board. Every action, local or from a client, is
// validated against it before being applied and broadcast.
type Host struct {
	id        string
	transport net.Transport
	board     *state.Board
	history   *state.History
	clients   map[string]struct{}
	changed   listeners
	mu        sync.Mutex
	logger    *zap.Logger
}

// NewHost creates a host and registers it on transport under id.
func NewHost(id string, transport net.Transport, opts ...Option) *Host {
	o := buildOptions(opts)
	h := &Host{
		id:        id,
		transport: transport,
		board:     state.NewBoard(),
		history:   state.NewHistory(),
		clients:   make(map[string]struct{}),
		logger:    o.logger.With(zap.String("role", "host"), zap.String("id", id)),
	}
	transport.Register(id, h.HandleMessage)
	return h
}

// ID is the host's endpoint and owner token.
func (h *Host) ID() string { return h.id }

// Close stops receiving messages.
func (h *Host) Close() {
	h.transport.Unregister(h.id)
}

// OnChange registers fn to run after the board may have changed.
func (h *Host) OnChange(fn func()) { h.changed.add(fn) }

// AddClient starts broadcasting to id.
func (h *Host) AddClient(id string) {
	if id == "" || id == h.id {
		return
	}
	h.mu.Lock()
	h.clients[id] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("Client joined", zap.String("client", id))
}

// RemoveClient stops broadcasting to id.
func (h *Host) RemoveClient(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
	h.logger.Info("Client left", zap.String("client", id))
}

// Clients lists the connected clients in sorted order.
func (h *Host) Clients() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clientList()
}

func (h *Host) clientList() []string {
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateAction reports whether a may be applied to the board as it is now.
func (h *Host) ValidateAction(a state.Action) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.validate(a)
}

// validate is the optimistic concurrency check: anything but a Create must
// be built on the snapshot currently stored, identified by its last editor.
func (h *Host) validate(a state.Action) bool {
	id := a.ShapeID()
	if id == "" {
		return false
	}
	switch a.Type {
	case state.ActionCreate:
		return a.New != nil
	case state.ActionModify, state.ActionDelete, state.ActionResurrect:
		if a.Prev == nil || a.New == nil {
			return false
		}
		stored, ok := h.board.Get(id)
		return ok && stored.LastModifiedBy == a.Prev.LastModifiedBy
	}
	return false
}

// Submit validates a local edit, applies it, records it and broadcasts it.
// It reports whether the edit was accepted.
func (h *Host) Submit(a state.Action) bool {
	h.mu.Lock()
	ok := h.accept(a)
	h.mu.Unlock()
	h.changed.notify()
	return ok
}

func (h *Host) accept(a state.Action) bool {
	if !h.validate(a) {
		h.logger.Debug("Rejected action",
			zap.String("action", a.ID), zap.Stringer("type", a.Type),
			zap.String("shape", a.ShapeID()), zap.String("editor", a.Editor()))
		return false
	}
	h.board.Apply(a)
	h.history.AddAction(a)
	h.broadcast(state.ActionEnvelope(state.MessageNormal, a))
	return true
}

// Undo reverts the most recent action in the host history. A stale undo,
// one whose shape changed since, is refused and leaves the cursor in place.
func (h *Host) Undo() bool {
	h.mu.Lock()
	ok := h.step(state.MessageUndo)
	h.mu.Unlock()
	if ok {
		h.changed.notify()
	}
	return ok
}

// Redo reapplies the action after the cursor, under the same rule as Undo.
func (h *Host) Redo() bool {
	h.mu.Lock()
	ok := h.step(state.MessageRedo)
	h.mu.Unlock()
	if ok {
		h.changed.notify()
	}
	return ok
}

func (h *Host) step(t state.MessageType) bool {
	var (
		candidate *state.Action
		derive    func(state.Action, string) (state.Action, bool)
		move      func() *state.Action
	)
	if t == state.MessageUndo {
		candidate, derive, move = h.history.PeekUndo(), state.Inverse, h.history.Undo
	} else {
		candidate, derive, move = h.history.PeekRedo(), state.Reapply, h.history.Redo
	}
	if candidate == nil {
		return false
	}
	a, ok := derive(*candidate, h.id)
	if !ok || !h.validate(a) {
		h.logger.Debug("Refused stale history step",
			zap.Stringer("message", t), zap.String("action", candidate.ID), zap.String("shape", candidate.ShapeID()))
		return false
	}
	move()
	h.board.Apply(a)
	h.broadcast(state.ActionEnvelope(t, a))
	return true
}

// Restore replaces the board with a serialized shape map, resets the
// history and sends the same map to every client.
func (h *Host) Restore(payload string) error {
	shapes, ok := codec.DecodeShapeMap(payload)
	if !ok {
		return ErrBadSnapshot
	}
	h.mu.Lock()
	h.board.Replace(shapes)
	h.history.Reset()
	h.broadcast(state.PayloadEnvelope(state.MessageRestore, payload))
	h.mu.Unlock()
	h.logger.Info("Board restored", zap.Int("shapes", len(shapes)))
	h.changed.notify()
	return nil
}

// HandleMessage processes one envelope from a client.
func (h *Host) HandleMessage(msg string) {
	env, ok := codec.DecodeEnvelope(msg)
	if !ok {
		h.logger.Debug("Ignored undecodable message", zap.Int("bytes", len(msg)))
		return
	}

	switch env.Type {
	case state.MessageNormal:
		if env.Action == nil {
			return
		}
		h.Submit(*env.Action)
	case state.MessageUndo, state.MessageRedo:
		if env.Action == nil {
			return
		}
		h.relay(env.Type, *env.Action)
	case state.MessageRequestShapes:
		if env.Payload == nil || *env.Payload == "" {
			return
		}
		h.sendShapes(*env.Payload)
	case state.MessageRestore:
		// only the host restores
	}
}

// relay applies a client's undo or redo without moving the host cursor.
func (h *Host) relay(t state.MessageType, a state.Action) {
	h.mu.Lock()
	ok := h.validate(a)
	if ok {
		h.board.Apply(a)
		h.broadcast(state.ActionEnvelope(t, a))
	} else {
		h.logger.Debug("Rejected client history step",
			zap.Stringer("message", t), zap.String("action", a.ID), zap.String("shape", a.ShapeID()))
	}
	h.mu.Unlock()
	h.changed.notify()
}

func (h *Host) sendShapes(target string) {
	h.mu.Lock()
	h.clients[target] = struct{}{}
	payload := codec.EncodeShapeMap(h.board.Snapshot())
	h.mu.Unlock()

	msg := codec.EncodeEnvelope(state.PayloadEnvelope(state.MessageRestore, payload))
	if err := h.transport.Send(target, msg); err != nil {
		h.logger.Warn("Failed to send shapes", zap.String("client", target), zap.Error(err))
	}
}

// broadcast must be called with h.mu held so envelopes leave in the order
// they were accepted.
func (h *Host) broadcast(env state.Envelope) {
	targets := h.clientList()
	if len(targets) == 0 {
		return
	}
	if err := h.transport.Broadcast(targets, codec.EncodeEnvelope(env)); err != nil {
		h.logger.Warn("Broadcast failed", zap.Stringer("message", env.Type), zap.Error(err))
	}
}

// Get returns the stored snapshot for id, tombstones included.
func (h *Host) Get(id string) (shape.Shape, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.board.Get(id)
}

// Shapes returns the live shapes bottom to top.
func (h *Host) Shapes() []shape.Shape {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.board.Visible()
}

// TopmostAt returns the live shape drawn last under p.
func (h *Host) TopmostAt(p shape.Point) (shape.Shape, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.board.TopmostAt(p)
}

// Ghosts is always empty on the host; its edits are final.
func (h *Host) Ghosts() []shape.Shape { return nil }

// CanUndo and CanRedo report whether the history has a step in that
// direction.
func (h *Host) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.PeekUndo() != nil
}

func (h *Host) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.PeekRedo() != nil
}

// Snapshot serializes the whole board, tombstones included.
func (h *Host) Snapshot() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return codec.EncodeShapeMap(h.board.Snapshot())
}

// HistorySnapshot serializes the history and its cursor.
func (h *Host) HistorySnapshot() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return codec.EncodeHistory(h.history.Export())
}

package collab

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"LocalBoard/internal/codec"
	"LocalBoard/internal/net"
	"LocalBoard/internal/shape"
	"LocalBoard/internal/state"
)

type ghost struct {
	shape  shape.Shape
	action string
	gen    uint64
	timer  *time.Timer
}

// Client keeps a replica of the host's board. Local edits are applied at
// once and shown as ghosts until the host echoes them back; undo and redo
// only take effect when the host confirms them. An edit whose ghost expires
// unconfirmed is dropped from the history and the board is fetched again.
type Client struct {
	id        string
	hostID    string
	transport net.Transport
	board     *state.Board
	history   *state.History
	ghosts    map[string]ghost
	ghostGen  uint64
	ghostTTL  time.Duration
	resyncs   int // RequestShapes sent and not yet answered
	closed    bool
	changed   listeners
	mu        sync.Mutex
	logger    *zap.Logger
}

// NewClient creates a client and registers it on transport under id.
// Messages for the host go to hostID.
func NewClient(id, hostID string, transport net.Transport, opts ...Option) *Client {
	o := buildOptions(opts)
	c := &Client{
		id:        id,
		hostID:    hostID,
		transport: transport,
		board:     state.NewBoard(),
		history:   state.NewHistory(),
		ghosts:    make(map[string]ghost),
		ghostTTL:  o.ghostTTL,
		logger:    o.logger.With(zap.String("role", "client"), zap.String("id", id)),
	}
	transport.Register(id, c.HandleMessage)
	return c
}

// ID is the client's endpoint and owner token.
func (c *Client) ID() string { return c.id }

// OnChange registers fn to run after the board or the ghosts may have
// changed.
func (c *Client) OnChange(fn func()) { c.changed.add(fn) }

// Close stops receiving messages and cancels pending ghost timers.
func (c *Client) Close() {
	c.transport.Unregister(c.id)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, g := range c.ghosts {
		g.timer.Stop()
		delete(c.ghosts, id)
	}
}

// Join asks the host for its current board.
func (c *Client) Join() {
	c.mu.Lock()
	c.resyncs++
	c.mu.Unlock()
	c.send(state.PayloadEnvelope(state.MessageRequestShapes, c.id))
}

// Resync re-requests the host's board, dropping whatever the replica has
// drifted into. The answer replaces the board but keeps the history.
func (c *Client) Resync() {
	c.logger.Debug("Requesting resync")
	c.Join()
}

// Submit applies a local edit optimistically, records it and sends it to
// the host. It reports false when the action carries no snapshot to apply.
func (c *Client) Submit(a state.Action) bool {
	c.mu.Lock()
	if !c.board.Apply(a) {
		c.mu.Unlock()
		return false
	}
	c.history.AddAction(a)
	c.addGhost(*a.New, a.ID)
	c.mu.Unlock()

	c.changed.notify()
	c.send(state.ActionEnvelope(state.MessageNormal, a))
	return true
}

// Undo asks the host to revert this client's most recent action. Nothing
// changes locally until the host echoes it.
func (c *Client) Undo() bool {
	c.mu.Lock()
	candidate := c.history.PeekUndo()
	var (
		a  state.Action
		ok bool
	)
	if candidate != nil {
		a, ok = state.Inverse(*candidate, c.id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	c.send(state.ActionEnvelope(state.MessageUndo, a))
	return true
}

// Redo asks the host to reapply the action after the cursor.
func (c *Client) Redo() bool {
	c.mu.Lock()
	candidate := c.history.PeekRedo()
	var (
		a  state.Action
		ok bool
	)
	if candidate != nil {
		a, ok = state.Reapply(*candidate, c.id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	c.send(state.ActionEnvelope(state.MessageRedo, a))
	return true
}

// send must not be called with c.mu held: an in-process host answers
// before Send returns.
func (c *Client) send(env state.Envelope) {
	if err := c.transport.Send(c.hostID, codec.EncodeEnvelope(env)); err != nil {
		c.logger.Warn("Failed to reach host", zap.String("host", c.hostID), zap.Stringer("message", env.Type), zap.Error(err))
	}
}

// HandleMessage processes one envelope from the host.
func (c *Client) HandleMessage(msg string) {
	env, ok := codec.DecodeEnvelope(msg)
	if !ok {
		c.logger.Debug("Ignored undecodable message", zap.Int("bytes", len(msg)))
		return
	}

	c.mu.Lock()
	changed := c.handle(env)
	c.mu.Unlock()
	if changed {
		c.changed.notify()
	}
}

func (c *Client) handle(env state.Envelope) bool {
	switch env.Type {
	case state.MessageNormal:
		if env.Action == nil {
			return false
		}
		a := *env.Action
		if a.Editor() == c.id {
			if g, ok := c.ghosts[a.ShapeID()]; ok {
				// a newer edit of the same shape is still in flight
				return g.action == a.ID && c.dropGhost(a.ShapeID())
			}
		}
		return c.board.Apply(a)

	case state.MessageUndo:
		if env.Action == nil {
			return false
		}
		if pending := c.history.PeekUndo(); pending != nil && pending.ID == env.Action.ID {
			c.history.Undo()
		}
		return c.board.Apply(*env.Action)

	case state.MessageRedo:
		if env.Action == nil {
			return false
		}
		if pending := c.history.PeekRedo(); pending != nil && pending.ID == env.Action.ID {
			c.history.Redo()
		}
		return c.board.Apply(*env.Action)

	case state.MessageRestore:
		if env.Payload == nil {
			return false
		}
		shapes, ok := codec.DecodeShapeMap(*env.Payload)
		if !ok {
			c.logger.Debug("Ignored malformed restore")
			return false
		}
		c.board.Replace(shapes)
		if c.resyncs > 0 {
			c.resyncs--
		} else {
			c.history.Reset()
		}
		for id, g := range c.ghosts {
			g.timer.Stop()
			delete(c.ghosts, id)
		}
		c.logger.Info("Board restored from host", zap.Int("shapes", len(shapes)))
		return true
	}
	return false
}

// addGhost must be called with c.mu held. A newer ghost for the same shape
// supersedes the older one and its timer.
func (c *Client) addGhost(s shape.Shape, action string) {
	if c.closed {
		return
	}
	if old, ok := c.ghosts[s.ID]; ok {
		old.timer.Stop()
	}
	c.ghostGen++
	gen, id := c.ghostGen, s.ID
	c.ghosts[id] = ghost{
		shape:  s,
		action: action,
		gen:    gen,
		timer:  time.AfterFunc(c.ghostTTL, func() { c.expireGhost(id, gen) }),
	}
}

// dropGhost must be called with c.mu held.
func (c *Client) dropGhost(id string) bool {
	g, ok := c.ghosts[id]
	if !ok {
		return false
	}
	g.timer.Stop()
	delete(c.ghosts, id)
	return true
}

func (c *Client) expireGhost(id string, gen uint64) {
	c.mu.Lock()
	g, ok := c.ghosts[id]
	if !ok || g.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.ghosts, id)
	c.history.Remove(g.action)
	closed := c.closed
	c.mu.Unlock()

	c.logger.Debug("Ghost expired without confirmation", zap.String("shape", id), zap.String("action", g.action))
	c.changed.notify()
	if !closed {
		c.Resync()
	}
}

// Ghosts returns the unconfirmed shapes.
func (c *Client) Ghosts() []shape.Shape {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]shape.Shape, 0, len(c.ghosts))
	for _, g := range c.ghosts {
		out = append(out, g.shape)
	}
	return out
}

// IsGhost reports whether the shape with id is still unconfirmed.
func (c *Client) IsGhost(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ghosts[id]
	return ok
}

// Get returns the replica's snapshot for id, tombstones included.
func (c *Client) Get(id string) (shape.Shape, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Get(id)
}

// Shapes returns the replica's live shapes bottom to top.
func (c *Client) Shapes() []shape.Shape {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Visible()
}

// TopmostAt returns the live shape drawn last under p.
func (c *Client) TopmostAt(p shape.Point) (shape.Shape, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.TopmostAt(p)
}

// CanUndo reports whether this client has an action of its own to revert.
func (c *Client) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.PeekUndo() != nil
}

// CanRedo reports whether a reverted action can be reapplied.
func (c *Client) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.PeekRedo() != nil
}

// Snapshot serializes the replica, tombstones included.
func (c *Client) Snapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return codec.EncodeShapeMap(c.board.Snapshot())
}

// HistorySnapshot serializes this client's own history and cursor.
func (c *Client) HistorySnapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return codec.EncodeHistory(c.history.Export())
}

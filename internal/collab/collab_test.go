package collab

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalBoard/internal/codec"
	"LocalBoard/internal/net"
	"LocalBoard/internal/shape"
	"LocalBoard/internal/state"
)

func rect(id, owner string) shape.Shape {
	return shape.New(shape.Rectangle, id, []shape.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, shape.Black, 2, owner)
}

func line(id, owner string) shape.Shape {
	return shape.New(shape.Line, id, []shape.Point{{X: 10, Y: 10}, {X: 60, Y: 40}}, shape.Blue, 1, owner)
}

var canvas = shape.Rect{Width: 1200, Height: 900}

// star wires a host and the named clients over one in-memory transport.
func star(t *testing.T, clients ...string) (*net.MemoryTransport, *Host, map[string]*Client) {
	t.Helper()
	tr := net.NewMemoryTransport()
	host := NewHost("host", tr)
	out := make(map[string]*Client, len(clients))
	for _, id := range clients {
		c := NewClient(id, "host", tr, WithGhostTTL(time.Minute))
		c.Join()
		t.Cleanup(c.Close)
		out[id] = c
	}
	return tr, host, out
}

// recorder stands in for a host that never answers.
type recorder struct {
	mu   sync.Mutex
	envs []state.Envelope
}

func (r *recorder) handle(msg string) {
	env, ok := codec.DecodeEnvelope(msg)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
}

func (r *recorder) received() []state.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.Envelope(nil), r.envs...)
}

func TestCreateReachesSecondClient(t *testing.T) {
	_, host, clients := star(t, "c1", "c2")
	assert.Equal(t, []string{"c1", "c2"}, host.Clients())

	r := rect("r1", "c1")
	a := state.CreateAction(r)
	require.True(t, host.ValidateAction(a))
	require.True(t, clients["c1"].Submit(a))

	stored := host.Shapes()
	require.Len(t, stored, 1)
	assert.Equal(t, "c1", stored[0].LastModifiedBy)

	got := clients["c2"].Shapes()
	require.Len(t, got, 1)
	assert.False(t, got[0].IsDeleted)
	assert.Equal(t, r, got[0])

	assert.Empty(t, clients["c1"].Ghosts(), "the echo confirms the ghost")
	assert.False(t, clients["c2"].CanUndo(), "someone else's action stays out of history")
}

func TestSameOwnerSequentialModifiesBothAccepted(t *testing.T) {
	_, host, clients := star(t, "c1")
	c1 := clients["c1"]

	l := line("l1", "c1")
	require.True(t, c1.Submit(state.CreateAction(l)))

	moved := l.WithMove(shape.Point{X: 5, Y: 5}, canvas, "c1")
	require.True(t, host.ValidateAction(state.ModifyAction(l, moved)))
	c1.Submit(state.ModifyAction(l, moved))
	got, _ := host.Get("l1")
	assert.Equal(t, moved, got)

	// a delayed duplicate built against the pre-move snapshot still carries
	// the same last editor, so the token cannot tell them apart
	stale := l.WithMove(shape.Point{X: -5, Y: 0}, canvas, "c1")
	dup := state.ModifyAction(l, stale)
	assert.True(t, host.ValidateAction(dup))
	assert.True(t, host.Submit(dup))
	got, _ = host.Get("l1")
	assert.Equal(t, stale, got)
}

func TestHostRejectsConflictingModify(t *testing.T) {
	tr, host, _ := star(t)
	watcher := &recorder{}
	tr.Register("watcher", watcher.handle)
	host.AddClient("watcher")

	s := rect("s1", "A")
	require.True(t, host.Submit(state.CreateAction(s)))
	before := host.Snapshot()
	history := host.HistorySnapshot()

	stale := s.WithUpdates(nil, nil, "B")
	conflicting := state.ModifyAction(stale, stale.WithMove(shape.Point{X: 3, Y: 3}, canvas, "B"))
	assert.False(t, host.ValidateAction(conflicting))

	host.HandleMessage(codec.EncodeEnvelope(state.ActionEnvelope(state.MessageNormal, conflicting)))

	assert.Equal(t, before, host.Snapshot())
	assert.Equal(t, history, host.HistorySnapshot())
	assert.Len(t, watcher.received(), 1, "only the create is broadcast")
}

func TestValidateAction(t *testing.T) {
	_, host, _ := star(t)
	s := rect("s1", "A")
	require.True(t, host.Submit(state.CreateAction(s)))
	other := rect("missing", "A")

	tests := []struct {
		name string
		a    state.Action
		want bool
	}{
		{"create", state.CreateAction(rect("s2", "B")), true},
		{"modify current", state.ModifyAction(s, s.WithUpdates(nil, nil, "B")), true},
		{"delete current", state.DeleteAction(s, "B"), true},
		{"modify unknown shape", state.ModifyAction(other, other.WithUpdates(nil, nil, "A")), false},
		{"no prev", state.NewAction(state.ActionModify, nil, &s), false},
		{"no snapshots", state.NewAction(state.ActionDelete, nil, nil), false},
		{"initial", state.NewAction(state.ActionInitial, nil, &s), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, host.ValidateAction(tt.a))
		})
	}
}

func TestClientOwnershipEcho(t *testing.T) {
	tr := net.NewMemoryTransport()
	host := &recorder{}
	tr.Register("host", host.handle)
	c := NewClient("c1", "host", tr, WithGhostTTL(time.Minute))
	defer c.Close()

	x := state.CreateAction(rect("x", "c1"))
	require.True(t, c.Submit(x))
	x2 := state.CreateAction(rect("x2", "c1"))
	require.True(t, c.Submit(x2))
	assert.True(t, c.IsGhost("x"))
	assert.True(t, c.IsGhost("x2"))

	sent := host.received()
	require.Len(t, sent, 2)
	assert.Equal(t, state.MessageNormal, sent[0].Type)
	require.NotNil(t, sent[0].Action)
	assert.Equal(t, x.ID, sent[0].Action.ID)

	c.HandleMessage(codec.EncodeEnvelope(state.ActionEnvelope(state.MessageNormal, x)))
	assert.False(t, c.IsGhost("x"))
	assert.True(t, c.IsGhost("x2"))

	history := c.HistorySnapshot()
	y := state.CreateAction(rect("y", "c2"))
	c.HandleMessage(codec.EncodeEnvelope(state.ActionEnvelope(state.MessageNormal, y)))

	_, ok := c.Get("y")
	assert.True(t, ok)
	assert.True(t, c.IsGhost("x2"))
	assert.Equal(t, history, c.HistorySnapshot())
}

func TestGhostExpiresWithoutConfirmation(t *testing.T) {
	tr := net.NewMemoryTransport()
	host := &recorder{}
	tr.Register("host", host.handle)
	c := NewClient("c1", "host", tr, WithGhostTTL(20*time.Millisecond))
	defer c.Close()

	expired := make(chan struct{}, 1)
	c.OnChange(func() {
		if len(c.Ghosts()) == 0 {
			select {
			case expired <- struct{}{}:
			default:
			}
		}
	})

	require.True(t, c.Submit(state.CreateAction(rect("x", "c1"))))
	require.True(t, c.CanUndo())
	require.Eventually(t, func() bool { return !c.IsGhost("x") }, time.Second, 5*time.Millisecond)
	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("no change notification for the expired ghost")
	}

	assert.False(t, c.CanUndo(), "the unconfirmed edit leaves the history")
	require.Eventually(t, func() bool { return len(host.received()) == 2 }, time.Second, 5*time.Millisecond)
	req := host.received()[1]
	assert.Equal(t, state.MessageRequestShapes, req.Type)
	require.NotNil(t, req.Payload)
	assert.Equal(t, "c1", *req.Payload)
}

func TestRejectedEditIsRolledBackAfterExpiry(t *testing.T) {
	tr := net.NewMemoryTransport()
	host := NewHost("host", tr)
	c1 := NewClient("c1", "host", tr, WithGhostTTL(20*time.Millisecond))
	defer c1.Close()
	c2 := NewClient("c2", "host", tr, WithGhostTTL(time.Minute))
	defer c2.Close()
	c1.Join()
	c2.Join()

	a := rect("a", "c1")
	require.True(t, c1.Submit(state.CreateAction(a)))
	s := line("s", "c2")
	require.True(t, c2.Submit(state.CreateAction(s)))
	require.Eventually(t, func() bool { return !c1.IsGhost("a") }, time.Second, 5*time.Millisecond)

	// built on a snapshot the host never stored
	red := shape.Red
	stale := s.WithUpdates(nil, nil, "c3")
	require.True(t, c1.Submit(state.ModifyAction(stale, stale.WithUpdates(&red, nil, "c1"))))
	got, _ := c1.Get("s")
	require.Equal(t, red, got.Color)

	require.Eventually(t, func() bool { return c1.Snapshot() == host.Snapshot() }, time.Second, 5*time.Millisecond)
	got, _ = c1.Get("s")
	assert.Equal(t, s, got)

	require.True(t, c1.CanUndo())
	require.True(t, c1.Undo())
	got, _ = host.Get("a")
	assert.True(t, got.IsDeleted)
	got, _ = c1.Get("a")
	assert.True(t, got.IsDeleted)
	assert.False(t, c1.CanUndo())
	assert.True(t, c1.CanRedo())
}

func TestLateEchoKeepsNewerGhost(t *testing.T) {
	tr := net.NewMemoryTransport()
	tr.Register("host", (&recorder{}).handle)
	c := NewClient("c1", "host", tr, WithGhostTTL(time.Minute))
	defer c.Close()

	r := rect("x", "c1")
	create := state.CreateAction(r)
	require.True(t, c.Submit(create))
	red := shape.Red
	recolored := r.WithUpdates(&red, nil, "c1")
	modify := state.ModifyAction(r, recolored)
	require.True(t, c.Submit(modify))

	c.HandleMessage(codec.EncodeEnvelope(state.ActionEnvelope(state.MessageNormal, create)))
	assert.True(t, c.IsGhost("x"), "the recolor is still unconfirmed")
	got, _ := c.Get("x")
	assert.Equal(t, recolored, got)

	c.HandleMessage(codec.EncodeEnvelope(state.ActionEnvelope(state.MessageNormal, modify)))
	assert.False(t, c.IsGhost("x"))
	got, _ = c.Get("x")
	assert.Equal(t, recolored, got)

	// an echo whose ghost is already gone still lands on the replica
	late := state.CreateAction(rect("y", "c1"))
	c.HandleMessage(codec.EncodeEnvelope(state.ActionEnvelope(state.MessageNormal, late)))
	_, ok := c.Get("y")
	assert.True(t, ok)
}

func TestNewerGhostSupersedesOlder(t *testing.T) {
	tr := net.NewMemoryTransport()
	tr.Register("host", (&recorder{}).handle)
	c := NewClient("c1", "host", tr, WithGhostTTL(time.Minute))
	defer c.Close()

	r := rect("x", "c1")
	c.Submit(state.CreateAction(r))
	red := shape.Red
	recolored := r.WithUpdates(&red, nil, "c1")
	c.Submit(state.ModifyAction(r, recolored))

	ghosts := c.Ghosts()
	require.Len(t, ghosts, 1)
	assert.Equal(t, recolored, ghosts[0])
}

func TestClientUndoRedoThroughHost(t *testing.T) {
	_, host, clients := star(t, "c1", "c2")
	c1, c2 := clients["c1"], clients["c2"]

	r := rect("r1", "c1")
	c1.Submit(state.CreateAction(r))
	hostHistory := host.HistorySnapshot()

	require.True(t, c1.Undo())
	for name, get := range map[string]func(string) (shape.Shape, bool){"host": host.Get, "c1": c1.Get, "c2": c2.Get} {
		got, ok := get("r1")
		require.True(t, ok, name)
		assert.True(t, got.IsDeleted, name)
	}
	assert.False(t, c1.CanUndo())
	assert.True(t, c1.CanRedo())
	assert.Equal(t, hostHistory, host.HistorySnapshot(), "client steps leave the host cursor alone")

	require.True(t, c1.Redo())
	for name, get := range map[string]func(string) (shape.Shape, bool){"host": host.Get, "c1": c1.Get, "c2": c2.Get} {
		got, ok := get("r1")
		require.True(t, ok, name)
		assert.Equal(t, r, got, name)
	}
	assert.True(t, c1.CanUndo())
	assert.False(t, c1.CanRedo())
	assert.False(t, c2.CanRedo())
}

func TestClientUndoNeedsEcho(t *testing.T) {
	tr := net.NewMemoryTransport()
	host := &recorder{}
	tr.Register("host", host.handle)
	c := NewClient("c1", "host", tr)
	defer c.Close()

	assert.False(t, c.Undo(), "nothing to undo yet")

	r := rect("r1", "c1")
	c.Submit(state.CreateAction(r))
	require.True(t, c.Undo())

	sent := host.received()
	require.Len(t, sent, 2)
	assert.Equal(t, state.MessageUndo, sent[1].Type)
	assert.Equal(t, state.ActionDelete, sent[1].Action.Type)

	got, _ := c.Get("r1")
	assert.False(t, got.IsDeleted, "undo waits for the host")
	assert.True(t, c.CanUndo())
}

func TestHostUndoRedo(t *testing.T) {
	_, host, clients := star(t, "c1")
	c1 := clients["c1"]

	r := rect("r1", "host")
	require.True(t, host.Submit(state.CreateAction(r)))

	require.True(t, host.Undo())
	got, _ := host.Get("r1")
	assert.True(t, got.IsDeleted)
	got, _ = c1.Get("r1")
	assert.True(t, got.IsDeleted)
	assert.False(t, host.CanUndo())

	require.True(t, host.Redo())
	got, _ = host.Get("r1")
	assert.Equal(t, r, got)
	got, _ = c1.Get("r1")
	assert.Equal(t, r, got)
	assert.False(t, host.Redo())
}

func TestHostRefusesStaleUndo(t *testing.T) {
	_, host, clients := star(t, "c1", "c2")
	c1, c2 := clients["c1"], clients["c2"]

	s := rect("s1", "c1")
	c1.Submit(state.CreateAction(s))
	blue := shape.Blue
	c2.Submit(state.ModifyAction(s, s.WithUpdates(&blue, nil, "c2")))

	// c2 reverts its own edit; the host history does not see it
	require.True(t, c2.Undo())
	got, _ := host.Get("s1")
	assert.Equal(t, s, got)

	before := host.HistorySnapshot()
	assert.False(t, host.Undo())
	assert.Equal(t, before, host.HistorySnapshot())
	got, _ = host.Get("s1")
	assert.Equal(t, s, got)
}

func TestHostUndoOfClientActionMovesClientCursor(t *testing.T) {
	_, host, clients := star(t, "c1", "c2")
	c1, c2 := clients["c1"], clients["c2"]

	s := rect("s1", "c1")
	c1.Submit(state.CreateAction(s))
	green := shape.Green
	c2.Submit(state.ModifyAction(s, s.WithUpdates(&green, nil, "c2")))

	require.True(t, host.Undo(), "host reverts c2's edit")
	got, _ := c2.Get("s1")
	assert.Equal(t, s, got)
	assert.False(t, c2.CanUndo())
	assert.True(t, c2.CanRedo())
}

func TestClientStaleUndoIsRejected(t *testing.T) {
	_, host, clients := star(t, "c1", "c2")
	c1, c2 := clients["c1"], clients["c2"]

	s := rect("s1", "c1")
	c1.Submit(state.CreateAction(s))
	green, red := shape.Green, shape.Red
	c2.Submit(state.ModifyAction(s, s.WithUpdates(&green, nil, "c2")))

	current, ok := c1.Get("s1")
	require.True(t, ok)
	latest := current.WithUpdates(&red, nil, "c1")
	c1.Submit(state.ModifyAction(current, latest))

	require.True(t, c2.Undo(), "the request goes out")
	got, _ := host.Get("s1")
	assert.Equal(t, latest, got)
	assert.True(t, c2.CanUndo(), "no echo, so the cursor stays")
}

func TestRestoreReplacesEveryBoard(t *testing.T) {
	tr := net.NewMemoryTransport()
	host := NewHost("host", tr)
	c := NewClient("c1", "host", tr, WithGhostTTL(time.Minute))
	defer c.Close()
	c.Join()

	c.Submit(state.CreateAction(rect("old", "c1")))
	require.True(t, c.CanUndo())

	restored := map[string]shape.Shape{
		"a": rect("a", "host"),
		"b": line("b", "c2").WithDelete("c2"),
	}
	payload := codec.EncodeShapeMap(restored)
	require.NoError(t, host.Restore(payload))

	assert.Equal(t, payload, host.Snapshot())
	assert.Equal(t, payload, c.Snapshot())
	assert.False(t, c.CanUndo())
	assert.False(t, host.CanUndo())
	assert.Empty(t, c.Ghosts())
	require.Len(t, c.Shapes(), 1)
	assert.Equal(t, "a", c.Shapes()[0].ID)

	assert.ErrorIs(t, host.Restore("{broken"), ErrBadSnapshot)
	assert.Equal(t, payload, host.Snapshot())
}

func TestHostIgnoresIncomingRestore(t *testing.T) {
	_, host, _ := star(t)
	host.Submit(state.CreateAction(rect("keep", "host")))
	before := host.Snapshot()

	host.HandleMessage(codec.EncodeEnvelope(state.PayloadEnvelope(state.MessageRestore, "{}")))
	host.HandleMessage("not an envelope")
	host.HandleMessage(codec.EncodeEnvelope(state.Envelope{Type: state.MessageNormal}))

	assert.Equal(t, before, host.Snapshot())
}

func TestJoinReceivesCurrentBoard(t *testing.T) {
	tr, host, _ := star(t)
	host.Submit(state.CreateAction(rect("r1", "host")))
	host.Submit(state.CreateAction(line("l1", "host")))

	late := NewClient("late", "host", tr)
	defer late.Close()
	assert.Empty(t, late.Shapes())

	late.Join()
	assert.Equal(t, host.Snapshot(), late.Snapshot())
	assert.Contains(t, host.Clients(), "late")

	host.RemoveClient("late")
	assert.NotContains(t, host.Clients(), "late")
}

func TestClientIgnoresRequestShapesAndGarbage(t *testing.T) {
	tr := net.NewMemoryTransport()
	tr.Register("host", (&recorder{}).handle)
	c := NewClient("c1", "host", tr)
	defer c.Close()

	changes := 0
	c.OnChange(func() { changes++ })
	c.HandleMessage(codec.EncodeEnvelope(state.PayloadEnvelope(state.MessageRequestShapes, "c9")))
	c.HandleMessage("")
	c.HandleMessage(`{"MessageType":"Restore","Payload":"[1,2]"}`)

	assert.Zero(t, changes)
	assert.Empty(t, c.Shapes())
}

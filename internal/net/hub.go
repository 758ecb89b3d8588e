package net

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"LocalBoard/internal/logging"
)

// Peer represents a connected client to the host.
type Peer struct {
	ID   string
	conn conn
	wmu  sync.Mutex
}

func (p *Peer) write(f frame) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return p.conn.WriteFrame(f)
}

// Hub is the host side of the star. Endpoints registered on it are local
// (the host's own coordinator); every other target is looked up among the
// connected peers. Clients reach it over TCP (ListenTCP) or WebSocket
// (ListenWS).
type Hub struct {
	// OnJoin and OnLeave are called from connection goroutines when a peer
	// introduces itself or goes away. Set them before listening.
	OnJoin  func(id string)
	OnLeave func(id string)

	local     *MemoryTransport
	peers     map[string]*Peer
	listeners []io.Closer
	router    *mux.Router
	closed    bool
	mu        sync.RWMutex
	logger    *zap.Logger
}

var _ Transport = (*Hub)(nil)

// NewHub creates a hub with no listeners.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		local:  NewMemoryTransport(),
		peers:  make(map[string]*Peer),
		logger: logging.OrNop(logger),
	}
}

// Register routes messages addressed to endpoint to a local handler.
func (h *Hub) Register(endpoint string, handler Handler) {
	h.local.Register(endpoint, handler)
}

// Unregister removes a local endpoint.
func (h *Hub) Unregister(endpoint string) {
	h.local.Unregister(endpoint)
}

// Peers lists connected peer ids in sorted order.
func (h *Hub) Peers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.peers))
	for id := range h.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Send delivers message to a local endpoint or a connected peer.
func (h *Hub) Send(target, message string) error {
	if h.local.Has(target) {
		return h.local.Send(target, message)
	}
	h.mu.RLock()
	p, ok := h.peers[target]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, target)
	}
	if err := p.write(frame{To: target, Message: message}); err != nil {
		return fmt.Errorf("send to %s: %w", target, err)
	}
	return nil
}

// Broadcast sends message to every target, collecting failures.
func (h *Hub) Broadcast(targets []string, message string) error {
	var err error
	for _, target := range targets {
		err = multierr.Append(err, h.Send(target, message))
	}
	return err
}

// attach runs one peer connection until it fails. The first frame must be
// the peer's hello.
func (h *Hub) attach(c conn) {
	defer c.Close()
	addr := c.RemoteAddr()

	hello, err := c.ReadFrame()
	if err != nil || !hello.isHello() {
		h.logger.Warn("Peer did not introduce itself", zap.String("addr", addr), zap.Error(err))
		return
	}
	p := &Peer{ID: hello.From, conn: c}
	if !h.add(p) {
		return
	}
	defer h.remove(p)

	for {
		f, err := c.ReadFrame()
		if err != nil {
			h.logger.Info("Peer disconnected", zap.String("peer", p.ID), zap.Error(err))
			return
		}
		if err := h.local.Send(f.To, f.Message); err != nil {
			h.logger.Debug("Dropped frame", zap.String("from", p.ID), zap.String("to", f.To), zap.Error(err))
		}
	}
}

func (h *Hub) add(p *Peer) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	old := h.peers[p.ID]
	h.peers[p.ID] = p
	h.mu.Unlock()

	if old != nil {
		old.conn.Close()
	}
	h.logger.Info("Peer connected", zap.String("peer", p.ID), zap.String("addr", p.conn.RemoteAddr()))
	if h.OnJoin != nil {
		h.OnJoin(p.ID)
	}
	return true
}

func (h *Hub) remove(p *Peer) {
	h.mu.Lock()
	current := h.peers[p.ID] == p
	if current {
		delete(h.peers, p.ID)
	}
	h.mu.Unlock()

	// a reconnect under the same id already replaced this peer
	if current && h.OnLeave != nil {
		h.OnLeave(p.ID)
	}
}

func (h *Hub) addListener(l io.Closer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.listeners = append(h.listeners, l)
	return nil
}

// Router returns the hub's HTTP routes; /ws upgrades to a peer connection.
// Callers may add their own routes before ListenWS.
func (h *Hub) Router() *mux.Router {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.router == nil {
		h.router = mux.NewRouter()
		h.router.HandleFunc("/ws", h.serveWS)
		h.router.HandleFunc("/peers", h.servePeers).Methods(http.MethodGet)
	}
	return h.router
}

// Close stops every listener and drops every peer.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	listeners := h.listeners
	peers := make([]*Peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	var err error
	for _, l := range listeners {
		err = multierr.Append(err, l.Close())
	}
	for _, p := range peers {
		p.conn.Close()
	}
	return err
}

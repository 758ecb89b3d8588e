package net

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

// MemoryTransport is a process-local registry that delivers synchronously:
// Send returns after the target's handler has run. Handlers are invoked
// without any registry lock held, so they may send in turn.
type MemoryTransport struct {
	handlers map[string]Handler
	mu       sync.RWMutex
}

var _ Transport = (*MemoryTransport)(nil)

// NewMemoryTransport creates an empty registry.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{handlers: make(map[string]Handler)}
}

// Register routes messages for endpoint to h, replacing any earlier handler.
func (m *MemoryTransport) Register(endpoint string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[endpoint] = h
}

// Unregister forgets endpoint.
func (m *MemoryTransport) Unregister(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, endpoint)
}

// Has reports whether endpoint is registered.
func (m *MemoryTransport) Has(endpoint string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.handlers[endpoint]
	return ok
}

// Endpoints lists the registered endpoints in sorted order.
func (m *MemoryTransport) Endpoints() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.handlers))
	for id := range m.handlers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Send hands message to target's handler.
func (m *MemoryTransport) Send(target, message string) error {
	m.mu.RLock()
	h, ok := m.handlers[target]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, target)
	}
	h(message)
	return nil
}

// Broadcast sends message to every target, collecting failures.
func (m *MemoryTransport) Broadcast(targets []string, message string) error {
	var err error
	for _, target := range targets {
		err = multierr.Append(err, m.Send(target, message))
	}
	return err
}

// Package collab holds the two coordinators that keep boards in sync: the
// authoritative Host and the optimistic Client. Both talk to each other only
// through envelopes sent over a net.Transport.
package collab

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"LocalBoard/internal/logging"
)

// DefaultGhostTTL is how long a client shows an unconfirmed edit as a ghost.
const DefaultGhostTTL = 3 * time.Second

type options struct {
	logger   *zap.Logger
	ghostTTL time.Duration
}

// Option configures a Host or a Client.
type Option func(*options)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithGhostTTL sets how long unconfirmed client edits stay ghosted. Hosts
// ignore it.
func WithGhostTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ghostTTL = ttl
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{ghostTTL: DefaultGhostTTL}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger)
	return o
}

// listeners is a set of change callbacks. Callbacks run on whichever
// goroutine changed the board, never with a coordinator lock held.
type listeners struct {
	mu  sync.Mutex
	fns []func()
}

func (l *listeners) add(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

func (l *listeners) notify() {
	l.mu.Lock()
	fns := append([]func(){}, l.fns...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

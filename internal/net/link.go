package net

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"LocalBoard/internal/logging"
)

// MaxDialElapsed bounds how long Dial* keeps retrying an unreachable host.
var MaxDialElapsed = 10 * time.Second

// Link is the client side of the star: one connection to the hub. Frames
// from the hub are delivered to locally registered endpoints.
type Link struct {
	id     string
	local  *MemoryTransport
	conn   conn
	wmu    sync.Mutex
	done   chan struct{}
	logger *zap.Logger
}

var _ Transport = (*Link)(nil)

func newLink(id string, c conn, logger *zap.Logger) (*Link, error) {
	l := &Link{
		id:     id,
		local:  NewMemoryTransport(),
		conn:   c,
		done:   make(chan struct{}),
		logger: logging.OrNop(logger),
	}
	if err := l.write(frame{From: id}); err != nil {
		c.Close()
		return nil, fmt.Errorf("introduce %s: %w", id, err)
	}
	go l.readLoop()
	return l, nil
}

// ID is the endpoint this link introduced itself as.
func (l *Link) ID() string { return l.id }

// Done is closed once the connection to the hub is gone.
func (l *Link) Done() <-chan struct{} { return l.done }

// Register routes frames for endpoint to handler.
func (l *Link) Register(endpoint string, handler Handler) {
	l.local.Register(endpoint, handler)
}

// Unregister removes a local endpoint.
func (l *Link) Unregister(endpoint string) {
	l.local.Unregister(endpoint)
}

// Send forwards message to target through the hub.
func (l *Link) Send(target, message string) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	if err := l.write(frame{From: l.id, To: target, Message: message}); err != nil {
		return fmt.Errorf("send to %s: %w", target, err)
	}
	return nil
}

// Broadcast sends message to every target, collecting failures.
func (l *Link) Broadcast(targets []string, message string) error {
	var err error
	for _, target := range targets {
		err = multierr.Append(err, l.Send(target, message))
	}
	return err
}

// Close drops the connection.
func (l *Link) Close() error {
	return l.conn.Close()
}

func (l *Link) write(f frame) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	return l.conn.WriteFrame(f)
}

func (l *Link) readLoop() {
	defer close(l.done)
	for {
		f, err := l.conn.ReadFrame()
		if err != nil {
			l.logger.Info("Disconnected from host", zap.String("id", l.id), zap.Error(err))
			return
		}
		target := f.To
		if target == "" {
			target = l.id
		}
		if err := l.local.Send(target, f.Message); err != nil {
			l.logger.Debug("Dropped frame", zap.String("to", target), zap.Error(err))
		}
	}
}

// retryDial calls dial with exponential backoff until it succeeds, ctx ends
// or MaxDialElapsed passes.
func retryDial(ctx context.Context, logger *zap.Logger, addr string, dial func() (conn, error)) (conn, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = MaxDialElapsed

	var c conn
	err := backoff.Retry(func() error {
		var err error
		c, err = dial()
		if err != nil {
			logging.OrNop(logger).Debug("Dial failed, retrying", zap.String("addr", addr), zap.Error(err))
		}
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return c, nil
}

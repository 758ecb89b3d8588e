package net

import (
	"errors"
)

// Handler receives one serialized envelope.
type Handler func(message string)

// Transport routes serialized envelopes between endpoints. Delivery is fire
// and forget: a nil error only means the message left this process.
type Transport interface {
	Register(endpoint string, h Handler)
	Unregister(endpoint string)
	Send(target, message string) error
	Broadcast(targets []string, message string) error
}

var (
	// ErrUnknownEndpoint is returned when nothing is registered or connected
	// under the target id.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrClosed is returned by transports that have been shut down.
	ErrClosed = errors.New("transport closed")
)

// frame is the unit written on a connection. The first frame a client sends
// carries only From and introduces it to the hub.
type frame struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Message string `json:"message,omitempty"`
}

func (f frame) isHello() bool {
	return f.From != "" && f.To == "" && f.Message == ""
}

// conn is a framed, bidirectional connection. Writes must be serialized by
// the caller.
type conn interface {
	ReadFrame() (frame, error)
	WriteFrame(f frame) error
	RemoteAddr() string
	Close() error
}

package net

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"go.uber.org/zap"
)

// tcpConn frames messages as newline-delimited JSON objects.
type tcpConn struct {
	c   net.Conn
	enc *json.Encoder
	dec *json.Decoder
}

func newTCPConn(c net.Conn) *tcpConn {
	return &tcpConn{c: c, enc: json.NewEncoder(c), dec: json.NewDecoder(c)}
}

func (t *tcpConn) ReadFrame() (frame, error) {
	var f frame
	err := t.dec.Decode(&f)
	return f, err
}

func (t *tcpConn) WriteFrame(f frame) error { return t.enc.Encode(f) }
func (t *tcpConn) RemoteAddr() string       { return t.c.RemoteAddr().String() }
func (t *tcpConn) Close() error             { return t.c.Close() }

// ListenTCP accepts peers on addr (":8888", "127.0.0.1:0", ...) until the hub
// is closed. It returns the bound address.
func (h *Hub) ListenTCP(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if err := h.addListener(listener); err != nil {
		listener.Close()
		return nil, err
	}
	h.logger.Info("TCP host server listening", zap.String("addr", listener.Addr().String()))

	go func() {
		for {
			c, err := listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				h.logger.Warn("Failed to accept connection", zap.Error(err))
				continue
			}
			go h.attach(newTCPConn(c))
		}
	}()
	return listener.Addr(), nil
}

// DialTCP connects to a hub at addr and introduces this process as id.
func DialTCP(ctx context.Context, addr, id string, logger *zap.Logger) (*Link, error) {
	var d net.Dialer
	c, err := retryDial(ctx, logger, addr, func() (conn, error) {
		nc, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return newTCPConn(nc), nil
	})
	if err != nil {
		return nil, err
	}
	return newLink(id, c, logger)
}

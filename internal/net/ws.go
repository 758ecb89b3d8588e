package net

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn carries one frame per text message.
type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) ReadFrame() (frame, error) {
	var f frame
	err := w.c.ReadJSON(&f)
	return f, err
}

func (w *wsConn) WriteFrame(f frame) error { return w.c.WriteJSON(f) }
func (w *wsConn) RemoteAddr() string       { return w.c.RemoteAddr().String() }
func (w *wsConn) Close() error             { return w.c.Close() }

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	h.attach(&wsConn{c: c})
}

func (h *Hub) servePeers(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.Peers()); err != nil {
		h.logger.Warn("Failed to write peer list", zap.Error(err))
	}
}

// ListenWS serves Router() on addr until the hub is closed and returns the
// bound address. Clients connect to ws://addr/ws.
func (h *Hub) ListenWS(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: h.Router(), ReadHeaderTimeout: 5 * time.Second}
	if err := h.addListener(srv); err != nil {
		listener.Close()
		return nil, err
	}
	h.logger.Info("WebSocket host server listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("WebSocket server stopped", zap.Error(err))
		}
	}()
	return listener.Addr(), nil
}

// DialWS connects to a hub's WebSocket endpoint (ws://host:port/ws) and
// introduces this process as id.
func DialWS(ctx context.Context, url, id string, logger *zap.Logger) (*Link, error) {
	c, err := retryDial(ctx, logger, url, func() (conn, error) {
		wc, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, err
		}
		return &wsConn{c: wc}, nil
	})
	if err != nil {
		return nil, err
	}
	return newLink(id, c, logger)
}

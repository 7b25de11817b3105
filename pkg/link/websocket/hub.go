// Package websocket fans the telemetry frames out to websocket clients
// and forwards their commands into the robot inbox.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Path is the websocket endpoint.
const Path = "/link"

// Sink receives bytes sent by clients, link.Port implements it.
type Sink interface {
	Feed([]byte) int
}

// Hub tracks connected clients.
type Hub struct {
	Addr string
	Sink Sink

	lock    sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a Hub serving on addr.
func NewHub(addr string, sink Sink) *Hub {
	return &Hub{Addr: addr, Sink: sink, clients: make(map[*websocket.Conn]struct{})}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Write implements io.Writer broadcasting one message to all clients.
// Clients failing to receive are dropped, Write never fails.
func (h *Hub) Write(p []byte) (int, error) {
	h.lock.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.lock.Unlock()
	for _, conn := range conns {
		if err := websocket.Message.Send(conn, string(p)); err != nil {
			glog.V(2).Infof("websocket %s: %v", conn.Request().RemoteAddr, err)
			h.remove(conn)
			conn.Close()
		}
	}
	return len(p), nil
}

// Handler returns the websocket handler.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	h.lock.Lock()
	h.clients[conn] = struct{}{}
	h.lock.Unlock()
	glog.Infof("websocket client %s connected", conn.Request().RemoteAddr)
	defer func() {
		h.remove(conn)
		glog.Infof("websocket client %s disconnected", conn.Request().RemoteAddr)
	}()
	for {
		var msg []byte
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			return
		}
		if h.Sink != nil {
			h.Sink.Feed(msg)
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	delete(h.clients, conn)
	h.lock.Unlock()
}

// Run implements Runnable.
func (h *Hub) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(Path, h.Handler())
	server := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	glog.Infof("websocket hub on %s%s", ln.Addr(), Path)
	if err := server.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

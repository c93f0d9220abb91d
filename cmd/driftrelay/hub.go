package main

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nordgaard/driftroom/pkg/graph"
)

// hub tracks connected peers and fans ops out to everyone except the
// sender. The relay's own graph is the durable copy newcomers bootstrap
// from.
type hub struct {
	g  *graph.Graph
	mu sync.Mutex
	wg sync.WaitGroup

	conns map[*websocket.Conn]chan graph.Op
}

func newHub(g *graph.Graph) *hub {
	return &hub{
		g:     g,
		conns: map[*websocket.Conn]chan graph.Op{},
	}
}

func (h *hub) peerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// broadcast queues an op for every peer but the origin. Slow peers drop
// ops; they recover full state on reconnect.
func (h *hub) broadcast(origin *websocket.Conn, o graph.Op) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, out := range h.conns {
		if conn == origin {
			continue
		}
		select {
		case out <- o:
		default:
			log.Warn().Str("peer", conn.RemoteAddr().String()).Msg("[relay] peer queue full, dropping op")
		}
	}
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("[relay] upgrade failed")
		return
	}
	peer := conn.RemoteAddr().String()
	out := make(chan graph.Op, 256)

	h.mu.Lock()
	h.conns[conn] = out
	h.mu.Unlock()
	log.Info().Str("peer", peer).Msg("[relay] peer connected")

	done := make(chan struct{})

	// Writer: state bootstrap first, then live fan-out.
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for _, o := range h.g.Ops() {
			if err := conn.WriteJSON(o); err != nil {
				return
			}
		}
		for {
			select {
			case o := <-out:
				if err := conn.WriteJSON(o); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Reader: merge into the relay graph, then fan out.
	for {
		var o graph.Op
		if err := conn.ReadJSON(&o); err != nil {
			break
		}
		if o.Path == "" {
			continue
		}
		if err := h.g.ApplyOp(o); err != nil {
			break
		}
		h.broadcast(conn, o)
	}

	close(done)
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
	log.Info().Str("peer", peer).Msg("[relay] peer disconnected")
}

// closeAll asks every peer to go away and waits for writers to finish.
func (h *hub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		_ = c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay shutdown"))
		_ = c.Close()
	}
	h.wg.Wait()
}

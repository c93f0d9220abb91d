package graph

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// relayReconnectWait is the fixed backoff between relay dial attempts.
const relayReconnectWait = 3 * time.Second

// relayConn maintains one relay peering: local ops go out, remote ops are
// merged back into the graph via the same apply path as local writes.
type relayConn struct {
	g   *Graph
	url string

	mu   sync.Mutex
	out  chan Op
	done chan struct{}
}

func newRelayConn(g *Graph, rawURL string) *relayConn {
	return &relayConn{
		g:    g,
		url:  syncURL(rawURL),
		out:  make(chan Op, 256),
		done: make(chan struct{}),
	}
}

// syncURL normalizes a relay base URL to its WebSocket sync endpoint.
func syncURL(raw string) string {
	u := strings.TrimSuffix(raw, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	case !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://"):
		u = "ws://" + u
	}
	if !strings.HasSuffix(u, "/sync") {
		u += "/sync"
	}
	return u
}

func (rc *relayConn) start() {
	go rc.run()
}

func (rc *relayConn) run() {
	for {
		select {
		case <-rc.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(rc.url, nil)
		if err != nil {
			rc.g.log.Warn().Err(err).Str("relay", rc.url).Msg("relay dial failed")
			select {
			case <-time.After(relayReconnectWait):
				continue
			case <-rc.done:
				return
			}
		}
		rc.g.log.Info().Str("relay", rc.url).Msg("relay connected")
		rc.serve(conn)
	}
}

// serve pumps ops in both directions until the connection drops or the
// relay is closed.
func (rc *relayConn) serve(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for {
			select {
			case o := <-rc.out:
				if err := conn.WriteJSON(o); err != nil {
					return
				}
			case <-rc.done:
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}()

	for {
		var o Op
		if err := conn.ReadJSON(&o); err != nil {
			rc.g.log.Warn().Err(err).Str("relay", rc.url).Msg("relay read error")
			break
		}
		if o.Path == "" {
			continue
		}
		if err := rc.g.apply(o, true); err != nil {
			return
		}
	}
	<-writeDone
}

// send queues a local op for the relay. Ops are dropped when the queue is
// full (the relay replays full state on reconnect anyway).
func (rc *relayConn) send(o Op) {
	select {
	case rc.out <- o:
	default:
		rc.g.log.Warn().Str("relay", rc.url).Msg("relay send queue full, dropping op")
	}
}

func (rc *relayConn) close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	select {
	case <-rc.done:
	default:
		close(rc.done)
	}
}

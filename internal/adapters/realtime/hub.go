// Package realtime carries location samples and chat messages between devices
// over WebSocket. Hub is the relay server; WebSocketBus is the client side of
// the event bus port.
package realtime

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Stream names carried under /operations/{id}/.
const (
	StreamLocations = "locations"
	StreamChat      = "chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// ErrHubClosed is returned by Serve-side upgrades after Close.
var ErrHubClosed = errors.New("realtime: hub closed")

// Hub relays every frame a peer sends to all other peers on the same
// operation stream. It keeps no history.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	rooms  map[string]map[*peer]struct{}
	closed bool

	wg sync.WaitGroup
}

type peer struct {
	room string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		rooms: make(map[string]map[*peer]struct{}),
	}
}

// Handler routes GET /operations/{id}/{stream} to the relay.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /operations/{id}/{stream}", h.serveStream)
	return mux
}

// Peers returns the number of peers connected to an operation stream.
func (h *Hub) Peers(operationID, stream string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomKey(operationID, stream)])
}

// Close disconnects every peer and waits for their goroutines to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, peers := range h.rooms {
		for p := range peers {
			close(p.send)
		}
	}
	h.rooms = make(map[string]map[*peer]struct{})
	h.mu.Unlock()

	h.wg.Wait()
}

func (h *Hub) serveStream(w http.ResponseWriter, r *http.Request) {
	operationID := r.PathValue("id")
	stream := r.PathValue("stream")
	if operationID == "" || (stream != StreamLocations && stream != StreamChat) {
		http.NotFound(w, r)
		return
	}

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	p := &peer{room: roomKey(operationID, stream), conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.join(p) {
		_ = conn.Close()
		return
	}
	h.logger.Debug("peer joined",
		zap.String("operation_id", operationID),
		zap.String("stream", stream),
		zap.String("remote", r.RemoteAddr))

	h.wg.Add(2)
	go h.writePump(p)
	h.readPump(p)
}

func (h *Hub) join(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	peers, ok := h.rooms[p.room]
	if !ok {
		peers = make(map[*peer]struct{})
		h.rooms[p.room] = peers
	}
	peers[p] = struct{}{}
	return true
}

// leaveLocked removes p and closes its send channel. Only the caller that
// finds p in its room closes the channel.
func (h *Hub) leaveLocked(p *peer) {
	peers, ok := h.rooms[p.room]
	if !ok {
		return
	}
	if _, ok := peers[p]; !ok {
		return
	}
	delete(peers, p)
	close(p.send)
	if len(peers) == 0 {
		delete(h.rooms, p.room)
	}
}

func (h *Hub) relay(from *peer, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.rooms[from.room] {
		if p == from {
			continue
		}
		select {
		case p.send <- message:
		default:
			h.logger.Warn("dropping slow peer", zap.String("room", p.room))
			h.leaveLocked(p)
		}
	}
}

func (h *Hub) readPump(p *peer) {
	defer func() {
		h.mu.Lock()
		h.leaveLocked(p)
		h.mu.Unlock()
		h.wg.Done()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("peer read failed", zap.String("room", p.room), zap.Error(err))
			}
			return
		}
		h.relay(p, message)
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
		h.wg.Done()
	}()

	for {
		select {
		case message, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func roomKey(operationID, stream string) string {
	return operationID + "/" + stream
}

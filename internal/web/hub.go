package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/stock_grid/internal/usecase"
	"go.uber.org/zap"
)

const (
	wsPingInterval = 45 * time.Second
	wsReadTimeout  = 90 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// SnapshotMessage is pushed to websocket clients after every refresh cycle.
type SnapshotMessage struct {
	Type  string                   `json:"type"`
	Time  time.Time                `json:"time"`
	Plans []usecase.PlanEvaluation `json:"plans"`
}

type wsClient struct {
	conn *websocket.Conn
	out  chan any
	done chan struct{}
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub fans snapshot messages out to connected websocket clients. A client
// that cannot keep up misses messages rather than blocking the refresh loop.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	last    *SnapshotMessage
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
}

func (h *Hub) PublishEvaluations(results []usecase.PlanEvaluation) {
	msg := &SnapshotMessage{Type: "snapshots", Time: time.Now(), Plans: results}

	h.mu.Lock()
	h.last = msg
	h.mu.Unlock()

	h.broadcast(msg)
}

func (h *Hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.out <- v:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &wsClient{conn: conn, out: make(chan any, 16), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	last := h.last
	h.mu.Unlock()
	h.logger.Debug("Websocket client connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
		cl.close()
	}()

	go h.writeLoop(cl)

	if last != nil {
		cl.out <- last
	}

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(cl *wsClient) {
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case v := <-cl.out:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := cl.conn.WriteJSON(v); err != nil {
				cl.close()
				return
			}
		case <-ping.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			return
		}
	}
}

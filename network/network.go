package network

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ellehcimzhang/frontseat.github.io/hub"
)

var log = logging.Logger("network")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 20 // 1MB
	sendBuffer     = 64
)

// ErrSlowConsumer is returned by Send when a viewer's buffer is full.
// The hub prunes the connection rather than letting it backpressure
// the broadcast tick.
var ErrSlowConsumer = errors.New("viewer send buffer full")

var errConnClosed = errors.New("connection closed")

var upgrader = websocket.Upgrader{
	// For dev, allow all origins. Lock this down in prod.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server upgrades viewer HTTP requests and feeds the hub.
type Server struct {
	hub *hub.Hub
}

func NewServer(h *hub.Hub) *Server {
	return &Server{hub: h}
}

func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveWS)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnw("upgrade failed", "err", err)
		return
	}

	c := newWSConn(conn)
	log.Infow("viewer connected", "conn", c.id, "remote", conn.RemoteAddr().String())

	s.hub.Inbox <- hub.Join{Conn: c}
	go c.writePump()
	c.readPump(s.hub)
}

// ListenAndServe serves the viewer websocket endpoint at the root
// path until the listener fails.
func ListenAndServe(addr string, h *hub.Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/", NewServer(h).Handler())
	log.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// wsConn adapts one gorilla connection to hub.Conn. Writes go through
// a buffered channel drained by writePump, so Send never blocks the
// hub goroutine no matter how stuck the peer is.
type wsConn struct {
	id        string
	conn      *websocket.Conn
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues b for delivery without blocking. A viewer that cannot
// drain its buffer gets ErrSlowConsumer.
func (c *wsConn) Send(b []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.out <- b:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close is safe to call from the hub and from both pumps.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) readPump(h *hub.Hub) {
	defer func() {
		_ = c.Close()
		h.Inbox <- hub.Leave{Conn: c}
		log.Infow("viewer disconnected", "conn", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.Inbox <- hub.Request{Conn: c, Raw: b}
	}
}

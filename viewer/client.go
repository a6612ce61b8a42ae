// Package viewer is the client side of the console protocol: it
// consumes the server's state and entity_update pushes and issues
// commands, correlating request/response exchanges by requestID.
package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ellehcimzhang/frontseat.github.io/protocol"
)

var log = logging.Logger("viewer")

const writeWait = 10 * time.Second

// Client is one viewer connection to the frontseat server.
type Client struct {
	conn *websocket.Conn

	mu             sync.Mutex // guards writes, callbacks and pending
	onState        func(protocol.State)
	onEntityUpdate func(json.RawMessage)
	pending        map[string]chan json.RawMessage

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the server's viewer endpoint, e.g.
// "ws://localhost:3000".
func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:    conn,
		pending: make(map[string]chan json.RawMessage),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// OnState registers the handler for full snapshot pushes.
func (c *Client) OnState(fn func(protocol.State)) {
	c.mu.Lock()
	c.onState = fn
	c.mu.Unlock()
}

// OnEntityUpdate registers the handler for out-of-band single-entity
// pushes. The payload is the raw data object.
func (c *Client) OnEntityUpdate(fn func(json.RawMessage)) {
	c.mu.Lock()
	c.onEntityUpdate = fn
	c.mu.Unlock()
}

// Send issues a fire-and-forget command (new player, quit player,
// pause/start live motion).
func (c *Client) Send(cmd protocol.Command) error {
	b, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Do issues a store command and waits for the correlated response.
// The returned bytes are the whole response object.
func (c *Client) Do(ctx context.Context, cmd protocol.Command) (json.RawMessage, error) {
	reqID := uuid.NewString()
	raw, err := json.Marshal(reqID)
	if err != nil {
		return nil, err
	}
	cmd.RequestID = raw

	ch := make(chan json.RawMessage, 1)
	key := string(raw)
	c.mu.Lock()
	c.pending[key] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()

	if err := c.Send(cmd); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-c.done:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases the connection. Safe to call multiple times.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleMessage(b)
	}
}

func (c *Client) handleMessage(b []byte) {
	// Probe the fields all server messages are built from.
	var msg struct {
		Type      string                    `json:"type"`
		Players   []protocol.PlayerSnapshot `json:"players"`
		Data      json.RawMessage           `json:"data"`
		RequestID json.RawMessage           `json:"requestID"`
	}
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Warnw("unparseable server message", "err", err)
		return
	}

	switch msg.Type {
	case protocol.MsgState:
		c.mu.Lock()
		fn := c.onState
		c.mu.Unlock()
		if fn != nil {
			fn(protocol.State{Type: msg.Type, Players: msg.Players})
		}
	case protocol.MsgEntityUpdate:
		c.mu.Lock()
		fn := c.onEntityUpdate
		c.mu.Unlock()
		if fn != nil {
			fn(msg.Data)
		}
	default:
		// Responses have no type; match them to a waiter by requestID.
		if len(msg.RequestID) == 0 {
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[string(msg.RequestID)]
		c.mu.Unlock()
		if ok {
			select {
			case ch <- json.RawMessage(b):
			default:
			}
		}
	}
}

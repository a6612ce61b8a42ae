package tracker

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ellehcimzhang/frontseat.github.io/protocol"
	"github.com/ellehcimzhang/frontseat.github.io/stage"
)

var log = logging.Logger("tracker")

const writeWait = 10 * time.Second

// ConnState tracks the lifecycle of the outbound tracker connection.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Source owns the single outbound connection to one performer's remote
// motion-tracker server. Its lifecycle is bound to the performer's:
// created on registration, closed on removal. A dropped connection is
// reported through the error callback and is fatal only to this
// performer's live feed, never to the rest of the system.
type Source struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	state     ConnState
	bounds    stage.Bounds
	hasBounds bool
	onData    func(protocol.SampleFrame)
	onError   func(error)
}

func New() *Source {
	return &Source{state: StateConnecting}
}

// OnData registers the sole handler invoked once per inbound sample
// frame. Set it before Connect.
func (s *Source) OnData(fn func(protocol.SampleFrame)) {
	s.mu.Lock()
	s.onData = fn
	s.mu.Unlock()
}

// OnError registers the handler for connection failures.
func (s *Source) OnError(fn func(error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// Connect opens ws://host:port in the background. An empty host means
// localhost. An unreachable endpoint does not return an error here; it
// transitions the source to Closed and fires the error callback.
func (s *Source) Connect(port int, host string) {
	if host == "" {
		host = "localhost"
	}
	url := fmt.Sprintf("ws://%s:%d", host, port)
	go s.run(url)
}

func (s *Source) run(url string) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		s.fail(fmt.Errorf("dial %s: %w", url, err))
		return
	}

	s.mu.Lock()
	if s.state == StateClosed {
		// Closed while dialing.
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	log.Infow("tracker connected", "url", url)

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			s.fail(fmt.Errorf("tracker read: %w", err))
			return
		}
		s.handleMessage(b)
	}
}

// inbound is a loose probe over the two message shapes a tracker
// sends: a state message carrying bounds, and sample frames.
type inbound struct {
	Time     float64                 `json:"time"`
	Channels []protocol.Channel      `json:"channels"`
	Bounds   *protocol.TrackerBounds `json:"bounds"`
}

func (s *Source) handleMessage(b []byte) {
	var msg inbound
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Warnw("unparseable tracker message", "err", err)
		return
	}

	if msg.Bounds != nil {
		s.setBounds(*msg.Bounds)
	}
	if len(msg.Channels) == 0 {
		return
	}

	s.mu.Lock()
	fn := s.onData
	s.mu.Unlock()
	if fn != nil {
		fn(protocol.SampleFrame{Time: msg.Time, Channels: msg.Channels})
	}
}

// setBounds records the device's capture volume. The first state
// message wins; bounds are configuration and never change afterwards.
func (s *Source) setBounds(b protocol.TrackerBounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasBounds {
		return
	}
	s.bounds = stage.Bounds{MinX: b.MinX, MaxX: b.MaxX, MinZ: b.MinZ, MaxZ: b.MaxZ}
	s.hasBounds = true
	if !s.bounds.Valid() {
		log.Warnw("tracker reported degenerate bounds", "bounds", s.bounds)
	}
}

// Bounds returns the device's capture volume once it has been
// reported.
func (s *Source) Bounds() (stage.Bounds, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds, s.hasBounds
}

func (s *Source) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetStreaming tells the device to start or stop pushing samples.
// Idempotent on the device side, so callers may repeat it freely.
func (s *Source) SetStreaming(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.conn == nil {
		return fmt.Errorf("tracker connection %s", s.state)
	}
	b, err := json.Marshal(protocol.BroadcastControl{Cmd: protocol.CmdBroadcast, Enabled: enabled})
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

// fail closes the source and reports err, unless Close already ran.
func (s *Source) fail(err error) {
	s.mu.Lock()
	wasClosed := s.state == StateClosed
	s.state = StateClosed
	conn := s.conn
	s.conn = nil
	fn := s.onError
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wasClosed {
		return
	}
	if fn != nil {
		fn(err)
	} else {
		log.Warnw("tracker connection lost", "err", err)
	}
}

// Close releases the connection. Safe to call multiple times.
func (s *Source) Close() error {
	s.mu.Lock()
	s.state = StateClosed
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

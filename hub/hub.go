package hub

import (
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ellehcimzhang/frontseat.github.io/protocol"
	"github.com/ellehcimzhang/frontseat.github.io/stage"
	"github.com/ellehcimzhang/frontseat.github.io/store"
	"github.com/ellehcimzhang/frontseat.github.io/tracker"
)

var log = logging.Logger("hub")

// Hub owns every viewer connection, the performer registry and the
// tracker sources. All of that state is touched only by the Run
// goroutine; everything else reaches it through Inbox, which is the
// single synchronization point for the whole server.
type Hub struct {
	Inbox chan any

	// NewSource builds tracker sources for registered performers.
	// Overridable for tests; defaults to real websocket sources.
	NewSource NewSourceFunc

	registry *stage.Registry
	sources  map[string]MotionSource
	clients  map[Conn]struct{}
	store    *store.Store

	tickEvery time.Duration
	quit      chan struct{}
}

func New(st *store.Store) *Hub {
	return &Hub{
		Inbox:     make(chan any, 256),
		NewSource: func() MotionSource { return tracker.New() },
		registry:  stage.NewRegistry(),
		sources:   make(map[string]MotionSource),
		clients:   make(map[Conn]struct{}),
		store:     st,
		tickEvery: time.Second / protocol.BroadcastHz,
		quit:      make(chan struct{}),
	}
}

// Run processes commands and broadcasts state until Stop. It is the
// sole goroutine allowed to touch hub state.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-h.quit:
			h.shutdown()
			return
		case cmd := <-h.Inbox:
			h.handle(cmd)
		case <-ticker.C:
			h.broadcastState()
		}
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) handle(cmd any) {
	switch c := cmd.(type) {
	case Join:
		h.clients[c.Conn] = struct{}{}
		log.Infow("viewer joined", "viewers", len(h.clients))
	case Leave:
		h.dropConn(c.Conn)
	case Request:
		h.dispatch(c.Conn, c.Raw)
	case Motion:
		h.applyMotion(c)
	}
}

func (h *Hub) shutdown() {
	for id, src := range h.sources {
		_ = src.Close()
		delete(h.sources, id)
	}
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
}

// broadcastState snapshots the registry and fans the copy out to every
// viewer. Runs once per tick whether or not anything moved; a missed
// frame heals itself because every push is the full state.
func (h *Hub) broadcastState() {
	snap := h.registry.Snapshot()
	players := make([]protocol.PlayerSnapshot, 0, len(snap))
	for _, p := range snap {
		players = append(players, protocol.PlayerSnapshot{
			ID:        p.ID,
			DiagramID: p.DiagramID,
			X:         p.X,
			Y:         p.Y,
			Angle:     p.Angle,
		})
	}
	b, err := protocol.Encode(protocol.State{Type: protocol.MsgState, Players: players})
	if err != nil {
		return
	}
	h.broadcast(b, nil)
}

// broadcast writes to every viewer except exclude. Conn.Send is
// non-blocking by contract, so a failed or saturated connection only
// gets itself pruned; delivery to the others proceeds.
func (h *Hub) broadcast(b []byte, exclude Conn) {
	var failed []Conn
	for c := range h.clients {
		if c == exclude {
			continue
		}
		if err := c.Send(b); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		log.Infow("pruning viewer after failed write")
		h.dropConn(c)
	}
}

func (h *Hub) dropConn(c Conn) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	_ = c.Close()
	delete(h.clients, c)
	log.Infow("viewer left", "viewers", len(h.clients))
}

// applyMotion maps each channel of a sample frame into stage
// coordinates and updates the registry. Channels for unknown
// performers are dropped; the registry never invents a performer from
// a motion event.
func (h *Hub) applyMotion(m Motion) {
	if _, ok := h.sources[m.SourceID]; !ok {
		return // source torn down while the frame was in flight
	}
	for _, ch := range m.Frame.Channels {
		src, ok := h.sources[ch.ID]
		if !ok {
			continue
		}
		if _, ok := h.registry.Get(ch.ID); !ok {
			continue
		}
		bounds, ok := src.Bounds()
		if !ok || !bounds.Valid() {
			continue
		}
		x, y, angle := stage.MapToStage(ch.Pos.X, ch.Pos.Z, ch.Rot.Y, bounds)
		p, ok := h.registry.ApplyMotion(ch.ID, x, y, angle)
		if !ok {
			continue
		}
		h.pushMotionUpdate(p)
	}
}

func (h *Hub) pushMotionUpdate(p stage.Performer) {
	data, err := protocol.Encode(protocol.MotionUpdate{
		ID:        p.ID,
		DiagramID: p.DiagramID,
		PosX:      p.X,
		PosY:      p.Y,
		Angle:     p.Angle,
	})
	if err != nil {
		return
	}
	b, err := protocol.Encode(protocol.EntityUpdate{Type: protocol.MsgEntityUpdate, Data: data})
	if err != nil {
		return
	}
	h.broadcast(b, nil)
}

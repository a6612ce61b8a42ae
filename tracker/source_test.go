package tracker

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ellehcimzhang/frontseat.github.io/protocol"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeDevice is a stand-in tracker server for one test. Messages queued
// on send are written to the first console that connects; control
// messages from the console come back on controls.
type fakeDevice struct {
	srv      *httptest.Server
	send     chan any
	controls chan protocol.BroadcastControl
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	d := &fakeDevice{
		send:     make(chan any, 16),
		controls: make(chan protocol.BroadcastControl, 16),
	}
	d.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		go func() {
			for msg := range d.send {
				b, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				if conn.WriteMessage(websocket.TextMessage, b) != nil {
					return
				}
			}
		}()

		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ctl protocol.BroadcastControl
			if json.Unmarshal(b, &ctl) == nil && ctl.Cmd == protocol.CmdBroadcast {
				d.controls <- ctl
			}
		}
	}))
	t.Cleanup(d.srv.Close)
	return d
}

func (d *fakeDevice) hostPort(t *testing.T) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(d.srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return host, port
}

type boundsMsg struct {
	Bounds protocol.TrackerBounds `json:"bounds"`
}

func waitForState(t *testing.T, s *Source, want ConnState) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for s.State() != want {
		select {
		case <-deadline:
			t.Fatalf("state = %v, want %v", s.State(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestConnectDeliversBoundsAndFrames(t *testing.T) {
	d := newFakeDevice(t)
	d.send <- boundsMsg{protocol.TrackerBounds{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 10}}
	d.send <- protocol.SampleFrame{
		Time: 1.5,
		Channels: []protocol.Channel{{
			ID:  "jane",
			Pos: protocol.Vec3{X: 5, Z: 5},
			Rot: protocol.Vec3{Y: 90},
		}},
	}

	frames := make(chan protocol.SampleFrame, 16)
	s := New()
	s.OnData(func(f protocol.SampleFrame) { frames <- f })
	defer s.Close()

	host, port := d.hostPort(t)
	s.Connect(port, host)
	waitForState(t, s, StateOpen)

	select {
	case f := <-frames:
		if len(f.Channels) != 1 || f.Channels[0].ID != "jane" || f.Channels[0].Rot.Y != 90 {
			t.Fatalf("unexpected frame %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sample frame never delivered")
	}

	b, ok := s.Bounds()
	if !ok {
		t.Fatalf("bounds not recorded")
	}
	if b.MinX != 0 || b.MaxX != 10 || b.MinZ != 0 || b.MaxZ != 10 {
		t.Fatalf("bounds = %+v", b)
	}
}

func TestFirstBoundsWin(t *testing.T) {
	d := newFakeDevice(t)
	d.send <- boundsMsg{protocol.TrackerBounds{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 10}}
	d.send <- boundsMsg{protocol.TrackerBounds{MinX: -5, MaxX: 5, MinZ: -5, MaxZ: 5}}
	// A frame after both, so the test can tell when processing caught up.
	d.send <- protocol.SampleFrame{Channels: []protocol.Channel{{ID: "jane"}}}

	frames := make(chan protocol.SampleFrame, 16)
	s := New()
	s.OnData(func(f protocol.SampleFrame) { frames <- f })
	defer s.Close()

	host, port := d.hostPort(t)
	s.Connect(port, host)

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatalf("frame never delivered")
	}

	b, ok := s.Bounds()
	if !ok {
		t.Fatalf("bounds not recorded")
	}
	if b.MaxX != 10 {
		t.Fatalf("later bounds overwrote the first: %+v", b)
	}
}

func TestSetStreamingSendsControl(t *testing.T) {
	d := newFakeDevice(t)
	s := New()
	defer s.Close()

	host, port := d.hostPort(t)
	s.Connect(port, host)
	waitForState(t, s, StateOpen)

	if err := s.SetStreaming(true); err != nil {
		t.Fatalf("set streaming: %v", err)
	}
	select {
	case ctl := <-d.controls:
		if !ctl.Enabled {
			t.Fatalf("control = %+v, want enabled", ctl)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("control message never arrived at the device")
	}

	if err := s.SetStreaming(false); err != nil {
		t.Fatalf("set streaming off: %v", err)
	}
	select {
	case ctl := <-d.controls:
		if ctl.Enabled {
			t.Fatalf("control = %+v, want disabled", ctl)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second control message never arrived")
	}
}

func TestSetStreamingBeforeOpenFails(t *testing.T) {
	s := New()
	if err := s.SetStreaming(true); err == nil {
		t.Fatalf("expected error while still connecting")
	}
}

func TestDialFailureFiresErrorCallback(t *testing.T) {
	// Grab a port that nothing listens on.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	errs := make(chan error, 1)
	s := New()
	s.OnError(func(err error) { errs <- err })
	s.Connect(port, host)

	select {
	case err := <-errs:
		if err == nil {
			t.Fatalf("nil error from callback")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("error callback never fired")
	}
	waitForState(t, s, StateClosed)
}

func TestServerDropFiresErrorCallback(t *testing.T) {
	d := newFakeDevice(t)
	errs := make(chan error, 1)
	s := New()
	s.OnError(func(err error) { errs <- err })

	host, port := d.hostPort(t)
	s.Connect(port, host)
	waitForState(t, s, StateOpen)

	d.srv.CloseClientConnections()

	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatalf("error callback never fired after server drop")
	}
	waitForState(t, s, StateClosed)
}

func TestCloseIsIdempotentAndSilencesErrors(t *testing.T) {
	d := newFakeDevice(t)
	errs := make(chan error, 1)
	s := New()
	s.OnError(func(err error) { errs <- err })

	host, port := d.hostPort(t)
	s.Connect(port, host)
	waitForState(t, s, StateOpen)

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	// The read loop dies from our own Close; that must not surface as a
	// tracker failure.
	select {
	case err := <-errs:
		t.Fatalf("error callback fired after deliberate close: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
	if s.State() != StateClosed {
		t.Fatalf("state = %v after close", s.State())
	}
}

func TestConnStateString(t *testing.T) {
	if StateConnecting.String() != "connecting" ||
		StateOpen.String() != "open" ||
		StateClosed.String() != "closed" {
		t.Fatalf("unexpected state strings")
	}
}

package hub

import (
	"github.com/ellehcimzhang/frontseat.github.io/protocol"
	"github.com/ellehcimzhang/frontseat.github.io/stage"
)

// Conn is one viewer connection as the hub sees it. Send must never
// block: implementations buffer writes and fail fast when a viewer
// cannot keep up, so a stuck connection can only get itself pruned,
// never stall the tick loop.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Join: a viewer connected.
type Join struct {
	Conn Conn
}

// Leave: a viewer's transport closed.
type Leave struct {
	Conn Conn
}

// Request: one raw inbound viewer message, dispatched by its declared
// type.
type Request struct {
	Conn Conn
	Raw  []byte
}

// Motion: one sample frame delivered by a performer's tracker source.
// SourceID names the performer whose source produced the frame; the
// channels inside carry their own performer ids.
type Motion struct {
	SourceID string
	Frame    protocol.SampleFrame
}

// MotionSource is the hub's view of one outbound tracker connection.
// *tracker.Source implements it; tests substitute fakes.
type MotionSource interface {
	Connect(port int, host string)
	OnData(func(protocol.SampleFrame))
	OnError(func(error))
	SetStreaming(enabled bool) error
	Bounds() (stage.Bounds, bool)
	Close() error
}

// NewSourceFunc builds the tracker source for a newly registered
// performer.
type NewSourceFunc func() MotionSource

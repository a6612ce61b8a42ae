package protocol

// Wire shapes exchanged with a performer's remote motion-tracker
// server (a "Mojo" server, one per externally driven performer).

// SampleFrame is one inbound data frame. Normally a tracker streams a
// single channel, but the format allows several and each one is
// processed independently.
type SampleFrame struct {
	Time     float64   `json:"time"`
	Channels []Channel `json:"channels"`
}

// Channel carries one rigid body's sample. ID matches the performer id
// registered with the hub.
type Channel struct {
	ID  string `json:"id"`
	Pos Vec3   `json:"pos"`
	Rot Vec3   `json:"rot"`
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TrackerBounds is the capture volume a device reports in its state
// message, before any samples arrive. Positions in SampleFrames fall
// within these ranges.
type TrackerBounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`
}

// CmdBroadcast toggles sample streaming on the device.
const CmdBroadcast = "broadcast"

// BroadcastControl is the outbound control message instructing a
// tracker to start or stop pushing samples.
type BroadcastControl struct {
	Cmd     string `json:"cmd"`
	Enabled bool   `json:"enabled"`
}

package protocol

import "encoding/json"

// Output shapes pushed or returned to viewer clients.

// State is the full snapshot broadcast to every viewer each tick.
type State struct {
	Type    string           `json:"type"`
	Players []PlayerSnapshot `json:"players"`
}

type PlayerSnapshot struct {
	ID        string  `json:"id"`
	DiagramID string  `json:"diagramID"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Angle     float64 `json:"angle"`
}

// EntityUpdate is the out-of-band push for a single entity change,
// either from motion ingestion or from a store update.
type EntityUpdate struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MotionUpdate is the EntityUpdate payload produced by motion
// ingestion. Position fields are named pos* to match the diagram
// entity attributes on the client.
type MotionUpdate struct {
	ID        string  `json:"id"`
	DiagramID string  `json:"diagramID"`
	PosX      float64 `json:"posX"`
	PosY      float64 `json:"posY"`
	Angle     float64 `json:"angle"`
}

// ResultResponse answers getOne and getAll. Result is null for a
// getOne miss, so it is never omitted.
type ResultResponse struct {
	Result    any             `json:"result"`
	RequestID json.RawMessage `json:"requestID,omitempty"`
}

// AckResponse answers update, remove and createInstance.
type AckResponse struct {
	Updated   bool            `json:"updated,omitempty"`
	Deleted   bool            `json:"deleted,omitempty"`
	Added     bool            `json:"added,omitempty"`
	RequestID json.RawMessage `json:"requestID,omitempty"`
}

// ErrorResponse reports a protocol error back to the sender. The
// connection stays open.
type ErrorResponse struct {
	Type      string          `json:"type"`
	Error     string          `json:"error"`
	RequestID json.RawMessage `json:"requestID,omitempty"`
}

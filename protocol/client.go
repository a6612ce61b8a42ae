package protocol

import "encoding/json"

// Input shapes coming in from viewer clients.

// Command is the outer shape of every viewer message, discriminated by
// Type. RequestID is opaque to the server: whatever JSON value the
// client sent is echoed back verbatim on the response.
type Command struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"` // quit player
	Collection string          `json:"collection,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	RequestID  json.RawMessage `json:"requestID,omitempty"`
}

// NewPlayerData is the payload of a "new player" command. MojoPort and
// MojoIPAddress locate the performer's remote motion-tracker server;
// both may be omitted for performers positioned directly by the
// console. An empty IP address means localhost.
type NewPlayerData struct {
	ID            string `json:"id"`
	DiagramID     string `json:"diagramID,omitempty"`
	MojoPort      int    `json:"mojoPort,omitempty"`
	MojoIPAddress string `json:"mojoIpAddress,omitempty"`
}

package protocol

import (
	"encoding/json"
	"testing"
)

func TestMessageConstants(t *testing.T) {
	// These strings are the wire contract with existing consoles and
	// diagram clients; they must never drift.
	cases := map[string]string{
		MsgNewPlayer:       "new player",
		MsgQuitPlayer:      "quit player",
		MsgPauseLiveMotion: "pause live motion",
		MsgStartLiveMotion: "start live motion",
		MsgGetOne:          "getOne",
		MsgGetAll:          "getAll",
		MsgUpdate:          "update",
		MsgRemove:          "remove",
		MsgCreateInstance:  "createInstance",
		MsgState:           "state",
		MsgEntityUpdate:    "entity_update",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("message constant = %q, want %q", got, want)
		}
	}
}

func TestBroadcastRateConstant(t *testing.T) {
	if BroadcastHz != 30 {
		t.Fatalf("BroadcastHz = %d, want 30", BroadcastHz)
	}
}

func TestDecodeCommandNewPlayer(t *testing.T) {
	raw := []byte(`{
		"type": "new player",
		"data": {"id": "jane", "diagramID": "7", "mojoPort": 9003, "mojoIpAddress": "192.168.10.1"},
		"requestID": 42
	}`)
	cmd, err := DecodeCommand(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.Type != MsgNewPlayer {
		t.Fatalf("type = %q, want %q", cmd.Type, MsgNewPlayer)
	}
	if string(cmd.RequestID) != "42" {
		t.Fatalf("requestID = %q, want raw 42", cmd.RequestID)
	}
}

func TestDecodeCommandRejectsGarbage(t *testing.T) {
	if _, err := DecodeCommand(nil); err == nil {
		t.Fatalf("expected error for empty message")
	}
	if _, err := DecodeCommand([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
	if _, err := DecodeCommand([]byte(`{"collection":"users"}`)); err == nil {
		t.Fatalf("expected error for message without type")
	}
}

func TestSampleFrameShape(t *testing.T) {
	raw := []byte(`{
		"time": 32.1,
		"channels": [{"id": "jane", "pos": {"x": 0.1, "y": 0, "z": 2.3}, "rot": {"x": 0, "y": 45, "z": 0}}]
	}`)
	var f SampleFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if len(f.Channels) != 1 {
		t.Fatalf("channels = %d, want 1", len(f.Channels))
	}
	ch := f.Channels[0]
	if ch.ID != "jane" || ch.Pos.Z != 2.3 || ch.Rot.Y != 45 {
		t.Fatalf("unexpected channel %+v", ch)
	}
}

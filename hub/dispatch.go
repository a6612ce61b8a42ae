package hub

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ellehcimzhang/frontseat.github.io/protocol"
	"github.com/ellehcimzhang/frontseat.github.io/stage"
)

// dispatch routes one inbound viewer message by its declared type.
// The type set is closed; anything else is a protocol error answered
// on the same connection, which stays open.
func (h *Hub) dispatch(conn Conn, raw []byte) {
	cmd, err := protocol.DecodeCommand(raw)
	if err != nil {
		h.sendError(conn, nil, "malformed message: "+err.Error())
		return
	}

	switch cmd.Type {
	case protocol.MsgNewPlayer:
		h.handleNewPlayer(conn, cmd)
	case protocol.MsgQuitPlayer:
		h.handleQuitPlayer(cmd)
	case protocol.MsgPauseLiveMotion:
		h.setAllStreaming(false)
	case protocol.MsgStartLiveMotion:
		h.setAllStreaming(true)
	case protocol.MsgGetOne, protocol.MsgGetAll, protocol.MsgUpdate,
		protocol.MsgRemove, protocol.MsgCreateInstance:
		h.handleStoreOp(conn, cmd)
	default:
		h.sendError(conn, cmd.RequestID, fmt.Sprintf("invalid message type %q", cmd.Type))
	}
}

// handleNewPlayer registers a performer and, when the command names a
// tracker endpoint, opens its motion source. A duplicate id is logged
// and ignored; the existing performer keeps its state.
func (h *Hub) handleNewPlayer(conn Conn, cmd protocol.Command) {
	var d protocol.NewPlayerData
	if err := json.Unmarshal(cmd.Data, &d); err != nil {
		h.sendError(conn, cmd.RequestID, "malformed new player data: "+err.Error())
		return
	}
	if d.ID == "" {
		h.sendError(conn, cmd.RequestID, "new player requires data.id")
		return
	}

	if _, err := h.registry.Upsert(d.ID, d.DiagramID); err != nil {
		if errors.Is(err, stage.ErrDuplicateID) {
			log.Warnw("duplicate performer registration ignored", "id", d.ID)
			return
		}
		h.sendError(conn, cmd.RequestID, err.Error())
		return
	}
	log.Infow("new player", "id", d.ID, "mojoPort", d.MojoPort, "mojoIp", d.MojoIPAddress)

	// Performers without a tracker endpoint are console-driven; no
	// source to open.
	if d.MojoPort == 0 {
		return
	}

	id := d.ID
	src := h.NewSource()
	src.OnData(func(f protocol.SampleFrame) {
		// Drop the frame when the inbox is saturated; the next sample
		// supersedes it anyway.
		select {
		case h.Inbox <- Motion{SourceID: id, Frame: f}:
		default:
		}
	})
	src.OnError(func(err error) {
		// Not fatal: the performer freezes at its last position until
		// an explicit quit.
		log.Warnw("tracker feed lost, performer frozen", "id", id, "err", err)
	})
	src.Connect(d.MojoPort, d.MojoIPAddress)
	h.sources[id] = src
}

// handleQuitPlayer removes a performer and tears down its source.
func (h *Hub) handleQuitPlayer(cmd protocol.Command) {
	if cmd.ID == "" {
		return
	}
	log.Infow("quit player", "id", cmd.ID)
	h.registry.Remove(cmd.ID)
	if src, ok := h.sources[cmd.ID]; ok {
		_ = src.Close()
		delete(h.sources, cmd.ID)
	}
}

// setAllStreaming toggles live motion on every tracker source at once,
// on the director's pause/start commands.
func (h *Hub) setAllStreaming(enabled bool) {
	for id, src := range h.sources {
		if err := src.SetStreaming(enabled); err != nil {
			log.Warnw("streaming toggle failed", "id", id, "enabled", enabled, "err", err)
		}
	}
}

func (h *Hub) respond(conn Conn, v any) {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Errorw("encode response", "err", err)
		return
	}
	if err := conn.Send(b); err != nil {
		h.dropConn(conn)
	}
}

func (h *Hub) sendError(conn Conn, requestID json.RawMessage, msg string) {
	log.Warnw("protocol error", "err", msg)
	h.respond(conn, protocol.ErrorResponse{
		Type:      protocol.MsgError,
		Error:     msg,
		RequestID: requestID,
	})
}

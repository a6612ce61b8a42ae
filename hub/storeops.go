package hub

import (
	"encoding/json"
	"fmt"

	"github.com/ellehcimzhang/frontseat.github.io/protocol"
	"github.com/ellehcimzhang/frontseat.github.io/store"
)

// handleStoreOp routes the generic record operations. The collection
// name must be one of the closed set; responses echo the request's
// opaque requestID when it sent one.
func (h *Hub) handleStoreOp(conn Conn, cmd protocol.Command) {
	if !store.IsCollection(cmd.Collection) {
		h.sendError(conn, cmd.RequestID,
			fmt.Sprintf("invalid message collection: %s", cmd.Collection))
		return
	}

	var query map[string]any
	if len(cmd.Data) > 0 {
		if err := json.Unmarshal(cmd.Data, &query); err != nil {
			h.sendError(conn, cmd.RequestID, "malformed data: "+err.Error())
			return
		}
	}

	switch cmd.Type {
	case protocol.MsgGetOne:
		res, err := h.store.FindOne(cmd.Collection, query)
		if err != nil {
			h.sendError(conn, cmd.RequestID, err.Error())
			return
		}
		h.respond(conn, protocol.ResultResponse{Result: res, RequestID: cmd.RequestID})

	case protocol.MsgGetAll:
		res, err := h.store.FindAll(cmd.Collection, query)
		if err != nil {
			h.sendError(conn, cmd.RequestID, err.Error())
			return
		}
		h.respond(conn, protocol.ResultResponse{Result: res, RequestID: cmd.RequestID})

	case protocol.MsgUpdate:
		if err := h.store.Update(cmd.Collection, query); err != nil {
			h.sendError(conn, cmd.RequestID, err.Error())
			return
		}
		h.respond(conn, protocol.AckResponse{Updated: true, RequestID: cmd.RequestID})
		// Entity changes are mirrored to every other viewer so their
		// diagrams retarget; the originator already has the change.
		if cmd.Collection == protocol.CollectionEntities {
			if b, err := protocol.Encode(protocol.EntityUpdate{
				Type: protocol.MsgEntityUpdate,
				Data: cmd.Data,
			}); err == nil {
				h.broadcast(b, conn)
			}
		}

	case protocol.MsgRemove:
		id, _ := query["id"].(string)
		if err := h.store.Delete(cmd.Collection, id); err != nil {
			h.sendError(conn, cmd.RequestID, err.Error())
			return
		}
		h.respond(conn, protocol.AckResponse{Deleted: true, RequestID: cmd.RequestID})
		if len(cmd.Data) > 0 {
			h.broadcast(cmd.Data, conn)
		}

	case protocol.MsgCreateInstance:
		if _, err := h.store.Create(cmd.Collection, query); err != nil {
			h.sendError(conn, cmd.RequestID, err.Error())
			return
		}
		h.respond(conn, protocol.AckResponse{Added: true, RequestID: cmd.RequestID})
		if len(cmd.Data) > 0 {
			h.broadcast(cmd.Data, conn)
		}
	}
}

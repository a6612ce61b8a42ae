package protocol

// Message type strings as they appear on the wire. The director's
// console predates this server, so the command names are fixed.
const (
	MsgNewPlayer       = "new player"
	MsgQuitPlayer      = "quit player"
	MsgPauseLiveMotion = "pause live motion"
	MsgStartLiveMotion = "start live motion"

	MsgGetOne         = "getOne"
	MsgGetAll         = "getAll"
	MsgUpdate         = "update"
	MsgRemove         = "remove"
	MsgCreateInstance = "createInstance"

	MsgState        = "state"
	MsgEntityUpdate = "entity_update"
	MsgError        = "error"
)

// Collections the generic store exposes to viewers.
const (
	CollectionUsers    = "users"
	CollectionEntities = "entities"
	CollectionDiagrams = "diagrams"
)

// BroadcastHz is the fixed rate at which the hub pushes full state
// snapshots to every viewer, independent of how often motion data
// arrives from the trackers.
const BroadcastHz = 30

package ws

// Message types. update and ping flow client -> server, the rest server -> client.
const (
	TypeUpdate      = "update"
	TypePing        = "ping"
	TypeJoin        = "join"
	TypeLeaderboard = "leaderboard"
	TypeStop        = "stop"
	TypeLeave       = "leave"
)

// Envelope is the discriminator every inbound frame carries.
type Envelope struct {
	Type string `json:"type"`
}

// ──────────────────────────── Request DTOs ─────────────────────────

// UpdateRequest is the body of "update".
type UpdateRequest struct {
	Count *int `json:"count" validate:"required,min=0"`
}

// PingRequest is the body of "ping".
type PingRequest struct{}

// ──────────────────────────── Server events ─────────────────────────

// Event is every server -> client frame.
type Event struct {
	Type    string     `json:"type"`
	Room    string     `json:"room"`
	Winner  *Standing  `json:"winner,omitempty"`
	Players []Standing `json:"players"`
}

func newEvent(typ string, snap Snapshot) Event {
	ev := Event{Type: typ, Room: snap.Room, Players: snap.Players}
	if typ == TypeStop {
		ev.Winner = snap.Winner
	}
	if ev.Players == nil {
		ev.Players = []Standing{}
	}
	return ev
}

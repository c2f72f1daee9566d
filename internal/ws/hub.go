package ws

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// Hub is the room registry. Rooms are created on first reference and never
// removed; an emptied room resets itself in place.
type Hub struct {
	rooms  sync.Map // code -> *Room
	target int
	clock  clockwork.Clock
}

func NewHub(target int, clock clockwork.Clock) *Hub {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Hub{target: target, clock: clock}
}

// Room resolves code, creating the room if it does not exist yet.
func (h *Hub) Room(code string) *Room {
	code = NormalizeCode(code)
	if v, ok := h.rooms.Load(code); ok {
		return v.(*Room)
	}
	v, _ := h.rooms.LoadOrStore(code, newRoom(code, h.target, h.clock))
	return v.(*Room)
}

// Lookup resolves code without creating a room.
func (h *Hub) Lookup(code string) (*Room, bool) {
	v, ok := h.rooms.Load(NormalizeCode(code))
	if !ok {
		return nil, false
	}
	return v.(*Room), true
}

// Range calls fn for every room until fn returns false.
func (h *Hub) Range(fn func(r *Room) bool) {
	h.rooms.Range(func(_, v any) bool {
		return fn(v.(*Room))
	})
}

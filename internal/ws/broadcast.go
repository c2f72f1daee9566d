package ws

import (
	"encoding/json"

	"go.uber.org/zap"
)

// outgoing is one event addressed to the connections captured with it.
type outgoing struct {
	to []Conn
	ev Event
}

func (r *Room) enqueueLocked(to []Conn, ev Event) {
	if len(to) == 0 {
		return
	}
	r.outbox = append(r.outbox, outgoing{to: to, ev: ev})
}

// Broadcast queues ev for the connections captured in snap, behind anything
// already queued, and flushes.
func (r *Room) Broadcast(snap Snapshot, ev Event) {
	r.mu.Lock()
	r.enqueueLocked(snap.recipients, ev)
	r.mu.Unlock()
	r.Flush()
}

// Flush sends queued frames in the order the room queued them. One goroutine
// sends for a room at a time and keeps draining until the queue is empty, so
// frames queued by a concurrent mutation leave after the earlier ones.
//
// Connections that fail are dropped from the room and closed after the pass;
// their readers then run the normal leave path.
func (r *Room) Flush() {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	var failed []Conn
	dead := make(map[Conn]struct{})
	for {
		r.mu.Lock()
		batch := r.outbox
		r.outbox = nil
		r.mu.Unlock()
		if len(batch) == 0 {
			break
		}

		for _, o := range batch {
			msg, err := json.Marshal(o.ev)
			if err != nil {
				zap.L().Error("ws.marshal_event", zap.String("type", o.ev.Type), zap.Error(err))
				continue
			}
			for _, c := range o.to {
				if _, gone := dead[c]; gone {
					continue
				}
				if err := c.Send(msg); err != nil {
					zap.L().Debug("ws.send_failed",
						zap.String("room", r.code),
						zap.String("conn", c.ID()),
						zap.Error(err),
					)
					dead[c] = struct{}{}
					failed = append(failed, c)
				}
			}
		}
	}

	if len(failed) == 0 {
		return
	}
	r.dropConns(failed)
	for _, c := range failed {
		_ = c.Close()
	}
}

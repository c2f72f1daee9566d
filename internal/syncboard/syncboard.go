package syncboard

import (
	"context"
	"encoding/json"
	"time"

	"repcount/internal/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	activeSet   = "rooms:active"
	hashPrefix  = "room:"
	pipeTimeout = 1500 * time.Millisecond
)

// mirror owns the set of rooms currently published to Redis. Only the Run
// goroutine touches it.
type mirror struct {
	rdc  *redis.Client
	hub  *ws.Hub
	ttl  time.Duration
	live map[string]struct{}
}

func newMirror(rdc *redis.Client, hub *ws.Hub, ttl time.Duration) *mirror {
	return &mirror{rdc: rdc, hub: hub, ttl: ttl, live: make(map[string]struct{})}
}

// Run mirrors every live room's standings into Redis each interval, so other
// processes can read them without joining the room.
func Run(ctx context.Context, rdc *redis.Client, hub *ws.Hub, interval, ttl time.Duration) {
	m := newMirror(rdc, hub, ttl)
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				m.syncOnce(ctx)
			}
		}
	}()
}

// syncOnce writes rooms with players and removes rooms that emptied since the
// last successful write. Rooms that stay empty cost nothing.
func (m *mirror) syncOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pipeTimeout)
	defer cancel()

	pipe := m.rdc.Pipeline()
	next := make(map[string]struct{})
	queued := 0
	m.hub.Range(func(r *ws.Room) bool {
		snap := r.Snapshot()
		key := hashPrefix + snap.Room
		if len(snap.Players) == 0 {
			if _, ok := m.live[snap.Room]; ok {
				pipe.SRem(ctx, activeSet, snap.Room)
				pipe.Del(ctx, key)
				queued++
			}
			return true
		}

		players, err := json.Marshal(snap.Players)
		if err != nil {
			zap.L().Error("syncboard.marshal", zap.String("room", snap.Room), zap.Error(err))
			return true
		}
		winner := ""
		if snap.Winner != nil {
			winner = snap.Winner.ID
		}
		pipe.HSet(ctx, key,
			"target", snap.Target,
			"winner", winner,
			"players", string(players),
		)
		pipe.Expire(ctx, key, m.ttl)
		pipe.SAdd(ctx, activeSet, snap.Room)
		next[snap.Room] = struct{}{}
		queued++
		return true
	})
	if queued == 0 {
		return
	}

	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Error("syncboard.pipeline", zap.Error(err))
		// keep pending removals for the next tick
		for code := range m.live {
			next[code] = struct{}{}
		}
	}
	m.live = next
}

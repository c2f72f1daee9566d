package ws

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Sweeper closes connections whose player sent nothing for staleAfter.
// Closing the connection fails its reader, which runs the usual leave path.
type Sweeper struct {
	hub        *Hub
	clock      clockwork.Clock
	staleAfter time.Duration
	interval   time.Duration
}

func NewSweeper(hub *Hub, clock clockwork.Clock, staleAfter, interval time.Duration) *Sweeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sweeper{hub: hub, clock: clock, staleAfter: staleAfter, interval: interval}
}

// Run blocks until ctx is done. A zero staleAfter disables the sweep.
func (sw *Sweeper) Run(ctx context.Context) {
	if sw.staleAfter <= 0 {
		return
	}
	tk := sw.clock.NewTicker(sw.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.Chan():
			if n := sw.SweepOnce(); n > 0 {
				zap.L().Info("ws.sweep", zap.Int("closed", n))
			}
		}
	}
}

// SweepOnce closes every stale connection and returns how many it closed.
func (sw *Sweeper) SweepOnce() int {
	cutoff := sw.clock.Now().Add(-sw.staleAfter)
	closed := 0
	sw.hub.Range(func(r *Room) bool {
		for _, c := range r.staleConns(cutoff) {
			zap.L().Debug("ws.stale_conn", zap.String("room", r.Code()), zap.String("conn", c.ID()))
			_ = c.Close()
			closed++
		}
		return true
	})
	return closed
}

package ws

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

type sessionState int32

const (
	stateConnecting sessionState = iota
	stateActive
	stateClosed
)

// Session drives one connection through CONNECTING -> ACTIVE -> CLOSED.
type Session struct {
	srv    *WsServer
	room   *Room
	conn   Conn
	player Player

	state     atomic.Int32
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(srv *WsServer, room *Room, conn Conn) *Session {
	return &Session{
		srv:  srv,
		room: room,
		conn: conn,
		done: make(chan struct{}),
	}
}

func (s *Session) Room() *Room      { return s.room }
func (s *Session) PlayerID() string { return s.player.ID }

func (s *Session) current() sessionState { return sessionState(s.state.Load()) }

// open joins the room and sends what the join queued: the announcement, and
// for a late joiner to a decided round a private stop.
func (s *Session) open(name string, target int) error {
	var (
		p    Player
		snap Snapshot
		err  error
	)
	if target > 0 {
		p, snap, err = s.room.JoinWithTarget(name, s.conn, target)
		if err != nil {
			return err
		}
	} else {
		p, snap = s.room.Join(name, s.conn)
	}
	s.player = p
	s.state.Store(int32(stateActive))

	zap.L().Info("ws.join",
		zap.String("room", s.room.Code()),
		zap.String("player", p.ID),
		zap.String("name", p.Name),
		zap.Int("players", len(snap.Players)),
	)

	s.room.Flush()
	return nil
}

// handle dispatches one inbound frame. Bad frames are dropped.
func (s *Session) handle(ctx context.Context, frame []byte) {
	if s.current() != stateActive {
		return
	}
	err := s.srv.router.dispatch(ctx, s, frame)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownType):
		zap.L().Debug("ws.unknown_type", zap.String("player", s.player.ID), zap.Error(err))
	default:
		zap.L().Warn("ws.dropped_frame", zap.String("player", s.player.ID), zap.Error(err))
	}
}

func (s *Session) update(count int) Outcome {
	outcome, snap := s.room.UpdateCount(s.player.ID, count)
	switch outcome {
	case OutcomeWin:
		zap.L().Info("ws.winner",
			zap.String("room", s.room.Code()),
			zap.String("player", snap.Winner.ID),
			zap.Int("count", snap.Winner.Count),
		)
		s.room.Flush()
		s.srv.recordWin(snap)
	case OutcomeContinue:
		s.room.Flush()
	}
	return outcome
}

func (s *Session) heartbeat() {
	s.room.Heartbeat(s.player.ID)
}

// close leaves the room, announces it and closes the connection. Only the
// first call has any effect.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		wasActive := s.current() == stateActive
		s.state.Store(int32(stateClosed))
		close(s.done)

		if wasActive {
			snap := s.room.Leave(s.player.ID, s.conn)
			zap.L().Info("ws.leave",
				zap.String("room", s.room.Code()),
				zap.String("player", s.player.ID),
				zap.Int("players", len(snap.Players)),
			)
			s.room.Flush()
		}
		_ = s.conn.Close()
	})
}

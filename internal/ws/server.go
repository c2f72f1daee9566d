package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"repcount/internal/services/results"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit       = 512
	dispatchTimeout = 1900 * time.Millisecond
	recordTimeout   = 4 * time.Second
)

// RoundRecorder receives every decided round.
type RoundRecorder interface {
	RecordRound(ctx context.Context, res results.RoundResult) error
}

type Options struct {
	MaxNameLen int
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration // must be < PongWait
}

func DefaultOptions() Options {
	return Options{
		MaxNameLen: 32,
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		PingPeriod: 20 * time.Second,
	}
}

type WsServer struct {
	hub      *Hub
	router   *Router
	recorder RoundRecorder
	upgrader websocket.Upgrader
	opts     Options
}

// NewWsServer wires the session handlers. recorder may be nil.
func NewWsServer(h *Hub, recorder RoundRecorder, opts Options) *WsServer {
	srv := &WsServer{
		hub:      h,
		router:   NewRouter(),
		recorder: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		opts: opts,
	}
	srv.registerHandlers() // ← all message types configured here
	return srv
}

func (s *WsServer) Hub() *Hub { return s.hub }

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

// Handle serves GET /ws/:room?name=<name>[&target=N].
func (s *WsServer) Handle(ginCtx *gin.Context) {
	code := NormalizeCode(ginCtx.Param("room"))
	if code == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "room is required"})
		return
	}
	target := 0
	if raw := ginCtx.Query("target"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			ginCtx.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidTarget.Error()})
			return
		}
		target = n
	}
	name := NormalizeName(ginCtx.Query("name"), s.opts.MaxNameLen)

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(readLimit)

	conn := newClientConn(uuid.NewString(), rawConn, s.opts.WriteWait)
	sess := newSession(s, s.hub.Room(code), conn)
	if err := sess.open(name, target); err != nil {
		zap.L().Warn("ws.open", zap.String("room", code), zap.Error(err))
		_ = conn.Close()
		return
	}

	go s.reader(sess, conn)
	go s.pinger(sess, conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 update ---------------------------------------------------------------
	Register(
		s.router,
		TypeUpdate,
		func(ctx context.Context, sess *Session, req UpdateRequest) error {
			sess.update(*req.Count)
			return nil
		},
	)

	// 🔹 ping -----------------------------------------------------------------
	Register(
		s.router,
		TypePing,
		func(ctx context.Context, sess *Session, _ PingRequest) error {
			sess.heartbeat()
			return nil
		},
	)
}

func (s *WsServer) reader(sess *Session, conn *clientConn) {
	defer sess.close()

	extend := func() { _ = conn.rawConn.SetReadDeadline(time.Now().Add(s.opts.PongWait)) }
	extend()
	conn.rawConn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		_, frame, err := conn.rawConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("ws.read", zap.String("player", sess.PlayerID()), zap.Error(err))
			}
			return // client closed or errored
		}
		extend()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		sess.handle(ctx, frame)
		cancel()
	}
}

func (s *WsServer) pinger(sess *Session, conn *clientConn) {
	ticker := time.NewTicker(s.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-sess.done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// recordWin hands the decided round to the recorder off the session goroutine.
func (s *WsServer) recordWin(snap Snapshot) {
	if s.recorder == nil || snap.Winner == nil {
		return
	}
	res := results.RoundResult{
		Room:        snap.Room,
		WinnerID:    snap.Winner.ID,
		WinnerName:  snap.Winner.Name,
		WinnerCount: snap.Winner.Count,
		Target:      snap.Target,
		DecidedAt:   s.hub.clock.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.recorder.RecordRound(ctx, res); err != nil {
			zap.L().Warn("ws.record_round", zap.String("room", res.Room), zap.Error(err))
		}
	}()
}

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
)

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, s *Session, frame []byte) error

// Router keeps a map[type]handler, à‑la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
	validate *validator.Validate
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]rawHandler),
		validate: validator.New(),
	}
}

// Register binds a message type to a strongly‑typed handler. The whole frame
// is decoded into Req and validated before h runs.
func Register[Req any](
	r *Router,
	typ string,
	h func(ctx context.Context, s *Session, req Req) error,
) {
	if typ == "" {
		panic("ws router: empty type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[typ] = func(ctx context.Context, s *Session, frame []byte) error {
		var req Req
		if err := json.Unmarshal(frame, &req); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := r.validate.Struct(req); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return h(ctx, s, req)
	}
}

// dispatch is called by the session's reader loop.
func (r *Router) dispatch(ctx context.Context, s *Session, frame []byte) error {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	r.mu.RLock()
	h, ok := r.handlers[env.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return h(ctx, s, frame)
}

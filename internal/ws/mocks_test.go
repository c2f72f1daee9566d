package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"repcount/internal/services/results"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id      string
	sent    [][]byte
	closed  int
	sendErr error
	mu      sync.Mutex
}

func newMockConn(id string) *mockConn { return &mockConn{id: id} }

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, data)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *mockConn) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) events(t *testing.T) []Event {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.sent))
	for _, raw := range m.sent {
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		out = append(out, ev)
	}
	return out
}

func (m *mockConn) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// gatedConn holds its first leaderboard send until gate is closed.
type gatedConn struct {
	*mockConn
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func newGatedConn(id string) *gatedConn {
	return &gatedConn{
		mockConn: newMockConn(id),
		gate:     make(chan struct{}),
		entered:  make(chan struct{}),
	}
}

func (g *gatedConn) Send(data []byte) error {
	var env Envelope
	if json.Unmarshal(data, &env) == nil && env.Type == TypeLeaderboard {
		g.once.Do(func() {
			close(g.entered)
			<-g.gate
		})
	}
	return g.mockConn.Send(data)
}

type fakeRecorder struct {
	got chan results.RoundResult
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{got: make(chan results.RoundResult, 16)}
}

func (f *fakeRecorder) RecordRound(_ context.Context, res results.RoundResult) error {
	f.got <- res
	return nil
}

func newTestHub(target int) (*Hub, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return NewHub(target, clock), clock
}

func names(ps []Standing) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func types(evs []Event) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Type)
	}
	return out
}

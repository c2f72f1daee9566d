package ws

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom_Leaderboard(t *testing.T) {
	hub, _ := newTestHub(100)
	r := hub.Room("gym")

	counts := map[string]int{"Zoe": 3, "amy": 3, "Bo": 5}
	for _, name := range []string{"Zoe", "amy", "Bo"} {
		p, _ := r.Join(name, newMockConn(name))
		outcome, _ := r.UpdateCount(p.ID, counts[name])
		require.Equal(t, OutcomeContinue, outcome)
	}

	board := r.Leaderboard()
	assert.Equal(t, []string{"Bo", "amy", "Zoe"}, names(board))
	assert.Equal(t, []int{5, 3, 3}, []int{board[0].Count, board[1].Count, board[2].Count})
}

func TestRoom_UpdateCountOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		updates []struct {
			player int
			count  int
		}
		want []Outcome
	}{
		{
			name: "below target continues",
			updates: []struct {
				player int
				count  int
			}{{0, 1}, {1, 2}, {0, 4}},
			want: []Outcome{OutcomeContinue, OutcomeContinue, OutcomeContinue},
		},
		{
			name: "first to reach target wins then everything is suppressed",
			updates: []struct {
				player int
				count  int
			}{{0, 4}, {1, 5}, {0, 9}, {1, 0}, {1, 6}},
			want: []Outcome{OutcomeContinue, OutcomeWin, OutcomeSuppressed, OutcomeSuppressed, OutcomeSuppressed},
		},
		{
			name: "overshooting target wins",
			updates: []struct {
				player int
				count  int
			}{{1, 50}},
			want: []Outcome{OutcomeWin},
		},
		{
			name: "lower count overwrites",
			updates: []struct {
				player int
				count  int
			}{{0, 4}, {0, 1}, {0, 5}},
			want: []Outcome{OutcomeContinue, OutcomeContinue, OutcomeWin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub, _ := newTestHub(5)
			r := hub.Room("r1")
			p0, _ := r.Join("a", newMockConn("c0"))
			p1, _ := r.Join("b", newMockConn("c1"))
			ids := []string{p0.ID, p1.ID}

			var got []Outcome
			for _, u := range tt.updates {
				o, _ := r.UpdateCount(ids[u.player], u.count)
				got = append(got, o)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoom_WinSnapshotCarriesWinner(t *testing.T) {
	hub, _ := newTestHub(5)
	r := hub.Room("r1")
	p, _ := r.Join("amy", newMockConn("c0"))

	outcome, snap := r.UpdateCount(p.ID, 5)
	require.Equal(t, OutcomeWin, outcome)
	require.NotNil(t, snap.Winner)
	assert.Equal(t, Standing{ID: p.ID, Name: "amy", Count: 5}, *snap.Winner)
	assert.Equal(t, "R1", snap.Room)
	assert.Len(t, snap.recipients, 1)
}

func TestRoom_ConcurrentCrossingHasExactlyOneWinner(t *testing.T) {
	hub, _ := newTestHub(5)
	r := hub.Room("race")

	const n = 64
	ids := make([]string, n)
	for i := range ids {
		p, _ := r.Join(fmt.Sprintf("p%d", i), newMockConn(fmt.Sprint(i)))
		ids[i] = p.ID
	}

	outcomes := make([]Outcome, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			outcomes[i], _ = r.UpdateCount(ids[i], 5)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, o := range outcomes {
		switch o {
		case OutcomeWin:
			wins++
		case OutcomeSuppressed:
		default:
			t.Fatalf("unexpected outcome %s", o)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestRoom_UpdateAfterLeaveIsIgnored(t *testing.T) {
	hub, _ := newTestHub(5)
	r := hub.Room("r1")
	c := newMockConn("c0")
	p, _ := r.Join("amy", c)
	r.Join("bo", newMockConn("c1"))

	r.Leave(p.ID, c)
	outcome, snap := r.UpdateCount(p.ID, 10)

	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, snap.Players)
	assert.Nil(t, r.Snapshot().Winner)
	assert.False(t, r.Heartbeat(p.ID))
}

func TestRoom_LeaveReturnsSmallerBoard(t *testing.T) {
	hub, _ := newTestHub(5)
	r := hub.Room("r1")
	ca, cb := newMockConn("a"), newMockConn("b")
	pa, _ := r.Join("amy", ca)
	r.Join("bo", cb)

	snap := r.Leave(pa.ID, ca)
	assert.Equal(t, []string{"bo"}, names(snap.Players))
	assert.Equal(t, []Conn{cb}, snap.recipients)
}

func TestRoom_EmptyRoomStartsFreshRound(t *testing.T) {
	hub, _ := newTestHub(5)
	r := hub.Room("r1")
	ca, cb := newMockConn("a"), newMockConn("b")
	pa, _, err := r.JoinWithTarget("amy", ca, 3)
	require.NoError(t, err)
	pb, _ := r.Join("bo", cb)

	outcome, _ := r.UpdateCount(pa.ID, 3)
	require.Equal(t, OutcomeWin, outcome)

	r.Leave(pa.ID, ca)
	assert.NotNil(t, r.Snapshot().Winner, "round stays decided while someone is connected")
	r.Leave(pb.ID, cb)

	snap := r.Snapshot()
	assert.Nil(t, snap.Winner)
	assert.Empty(t, snap.Players)
	assert.Equal(t, 5, snap.Target)
	assert.Equal(t, 0, r.ConnCount())

	p, joinSnap := r.Join("cy", newMockConn("c"))
	assert.Nil(t, joinSnap.Winner)
	assert.Equal(t, []string{"cy"}, names(joinSnap.Players))
	outcome, _ = r.UpdateCount(p.ID, 4)
	assert.Equal(t, OutcomeContinue, outcome)
}

func TestRoom_ResetRound(t *testing.T) {
	hub, _ := newTestHub(5)
	r := hub.Room("r1")
	p, _ := r.Join("amy", newMockConn("a"))
	r.UpdateCount(p.ID, 7)

	r.ResetRound()

	snap := r.Snapshot()
	assert.Nil(t, snap.Winner)
	assert.Empty(t, snap.Players)
}

func TestRoom_JoinWithTarget(t *testing.T) {
	hub, _ := newTestHub(5)
	r := hub.Room("r1")

	_, _, err := r.JoinWithTarget("x", newMockConn("x"), 0)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, snap, err := r.JoinWithTarget("amy", newMockConn("a"), 20)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Target)

	_, snap, err = r.JoinWithTarget("bo", newMockConn("b"), 2)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Target, "target is fixed once the round has players")
}

func TestRoom_HeartbeatTouchesLastSeen(t *testing.T) {
	hub, clock := newTestHub(5)
	r := hub.Room("r1")
	c := newMockConn("a")
	p, _ := r.Join("amy", c)

	clock.Advance(time.Minute)
	cutoff := clock.Now().Add(-30 * time.Second)
	assert.Equal(t, []Conn{c}, r.staleConns(cutoff))

	require.True(t, r.Heartbeat(p.ID))
	assert.Empty(t, r.staleConns(cutoff))
}

func TestHub_RoomIsCaseInsensitiveAndStable(t *testing.T) {
	hub, _ := newTestHub(5)
	a := hub.Room("gym")
	b := hub.Room("GYM")
	assert.Same(t, a, b)
	assert.Equal(t, "GYM", a.Code())

	_, ok := hub.Lookup("other")
	assert.False(t, ok)
	got, ok := hub.Lookup("Gym")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestHub_ConcurrentResolveCreatesOneRoom(t *testing.T) {
	hub, _ := newTestHub(5)
	rooms := make([]*Room, 32)
	var wg sync.WaitGroup
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = hub.Room("busy")
		}(i)
	}
	wg.Wait()
	for _, r := range rooms {
		assert.Same(t, rooms[0], r)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultPlayerName},
		{"amy", "amy"},
		{"abcdefghijklmnopqrstuvwxyz0123456789", "abcdefghijklmnopqrstuvwxyz012345"},
		{strings.Repeat("é", 40), strings.Repeat("é", 32)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in, 32))
	}
}

package ws

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrInvalidTarget = errors.New("target must be at least 1")

// Outcome is the result of a count update.
type Outcome int

const (
	// OutcomeIgnored: the player is no longer registered.
	OutcomeIgnored Outcome = iota
	// OutcomeContinue: no winner yet, leaderboard changed.
	OutcomeContinue
	// OutcomeWin: this update decided the round.
	OutcomeWin
	// OutcomeSuppressed: the round was already decided.
	OutcomeSuppressed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeWin:
		return "win"
	case OutcomeSuppressed:
		return "suppressed"
	default:
		return "ignored"
	}
}

// Snapshot is the room state captured atomically with the mutation that
// produced it. recipients is the connection set at that instant.
type Snapshot struct {
	Room    string
	Target  int
	Winner  *Standing
	Players []Standing

	recipients []Conn
}

// Room is the authoritative state of one game round. Every method takes the
// room lock for its whole read-check-write; network I/O never happens under it.
// Join, UpdateCount and Leave queue the frames they produce under the same
// lock, and Flush sends them in that order.
type Room struct {
	code          string
	defaultTarget int
	clock         clockwork.Clock

	mu      sync.Mutex
	target  int
	players map[string]*Player
	conns   map[Conn]struct{}
	winner  *Standing
	outbox  []outgoing

	sendMu sync.Mutex
}

func newRoom(code string, target int, clock clockwork.Clock) *Room {
	return &Room{
		code:          code,
		defaultTarget: target,
		clock:         clock,
		target:        target,
		players:       make(map[string]*Player),
		conns:         make(map[Conn]struct{}),
	}
}

func (r *Room) Code() string { return r.code }

// Join registers a new player on conn and queues the join announcement. A
// late joiner to a decided round also gets a private stop.
func (r *Room) Join(name string, conn Conn) (Player, Snapshot) {
	p, snap, _ := r.join(name, conn, 0)
	return p, snap
}

// JoinWithTarget is Join that also sets the round target when the caller
// opens the round. On a round already in progress target is ignored.
func (r *Room) JoinWithTarget(name string, conn Conn, target int) (Player, Snapshot, error) {
	if target < 1 {
		return Player{}, Snapshot{}, ErrInvalidTarget
	}
	return r.join(name, conn, target)
}

func (r *Room) join(name string, conn Conn, target int) (Player, Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if target > 0 && len(r.players) == 0 && r.winner == nil {
		r.target = target
	}

	p := &Player{
		ID:       newPlayerID(),
		Name:     name,
		LastSeen: r.clock.Now(),
		conn:     conn,
	}
	for r.players[p.ID] != nil {
		p.ID = newPlayerID()
	}
	r.players[p.ID] = p
	r.conns[conn] = struct{}{}

	snap := r.snapshotLocked()
	r.enqueueLocked(snap.recipients, newEvent(TypeJoin, snap))
	if snap.Winner != nil {
		r.enqueueLocked([]Conn{conn}, newEvent(TypeStop, snap))
	}
	return *p, snap, nil
}

// UpdateCount overwrites the player's count. Lower values are accepted.
// Exactly one call per round returns OutcomeWin and queues stop; OutcomeContinue
// queues a leaderboard.
func (r *Room) UpdateCount(playerID string, count int) (Outcome, Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return OutcomeIgnored, Snapshot{}
	}
	p.Count = count
	p.LastSeen = r.clock.Now()

	if r.winner != nil {
		return OutcomeSuppressed, Snapshot{}
	}
	if p.Count >= r.target {
		w := p.standing()
		r.winner = &w
		snap := r.snapshotLocked()
		r.enqueueLocked(snap.recipients, newEvent(TypeStop, snap))
		return OutcomeWin, snap
	}
	snap := r.snapshotLocked()
	r.enqueueLocked(snap.recipients, newEvent(TypeLeaderboard, snap))
	return OutcomeContinue, snap
}

// Heartbeat refreshes lastSeen. It reports whether the player is registered.
func (r *Room) Heartbeat(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if ok {
		p.LastSeen = r.clock.Now()
	}
	return ok
}

// Leave removes the player and its connection and queues the leave
// announcement for the others. When no connection is left the round is reset.
// The returned snapshot is the post-removal state.
func (r *Room) Leave(playerID string, conn Conn) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.players, playerID)
	delete(r.conns, conn)
	snap := r.snapshotLocked()
	r.enqueueLocked(snap.recipients, newEvent(TypeLeave, snap))
	if len(r.conns) == 0 {
		r.resetRoundLocked()
	}
	return snap
}

// ResetRound starts a new round: no players, no winner, default target.
func (r *Room) ResetRound() {
	r.mu.Lock()
	r.resetRoundLocked()
	r.mu.Unlock()
}

func (r *Room) resetRoundLocked() {
	r.players = make(map[string]*Player)
	r.winner = nil
	r.target = r.defaultTarget
}

// Leaderboard orders players by count desc, then case-insensitive name asc.
func (r *Room) Leaderboard() []Standing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaderboardLocked()
}

func (r *Room) leaderboardLocked() []Standing {
	out := make([]Standing, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p.standing())
	}
	slices.SortFunc(out, compareStandings)
	return out
}

func compareStandings(a, b Standing) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Snapshot returns the current state without mutating it.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	snap := Snapshot{
		Room:       r.code,
		Target:     r.target,
		Players:    r.leaderboardLocked(),
		recipients: make([]Conn, 0, len(r.conns)),
	}
	if r.winner != nil {
		w := *r.winner
		snap.Winner = &w
	}
	for c := range r.conns {
		snap.recipients = append(snap.recipients, c)
	}
	return snap
}

// ConnCount is the number of live connections.
func (r *Room) ConnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Room) dropConns(conns []Conn) {
	r.mu.Lock()
	for _, c := range conns {
		delete(r.conns, c)
	}
	r.mu.Unlock()
}

// staleConns lists connections of players not seen since cutoff.
func (r *Room) staleConns(cutoff time.Time) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Conn
	for _, p := range r.players {
		if p.LastSeen.Before(cutoff) && p.conn != nil {
			out = append(out, p.conn)
		}
	}
	return out
}

package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream is the Redis stream every decided round is appended to.
const Stream = "rounds_stream"

// streamMaxLen caps the stream; the Postgres table is the long-term record.
const streamMaxLen = 10000

type RoundResult struct {
	StreamID    string    `json:"stream_id"`
	Room        string    `json:"room"         example:"GYM1"`
	WinnerID    string    `json:"winner_id"    example:"3f9a1c2b"`
	WinnerName  string    `json:"winner_name"  example:"amy"`
	WinnerCount int       `json:"winner_count" example:"5"`
	Target      int       `json:"target"       example:"5"`
	DecidedAt   time.Time `json:"decided_at"   example:"2025-07-27T16:05:05Z"`
}

var ErrBadStreamEntry = errors.New("malformed round stream entry")

type IResultsService interface {
	RecordRound(ctx context.Context, res RoundResult) error
	ListResults(ctx context.Context, room string, limit, offset int) ([]RoundResult, error)
}

type resultsService struct {
	rdc *redis.Client
	db  *sql.DB
}

func NewResultsService(rdc *redis.Client, db *sql.DB) IResultsService {
	return &resultsService{rdc: rdc, db: db}
}

// RecordRound appends the round to the stream; syncresults persists it.
func (svc *resultsService) RecordRound(ctx context.Context, res RoundResult) error {
	return svc.rdc.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: StreamValues(res),
	}).Err()
}

func (svc *resultsService) ListResults(ctx context.Context, room string,
	limit, offset int) ([]RoundResult, error) {

	if limit == 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	base := `SELECT stream_id, room, winner_id, winner_name,
                    winner_count, target, decided_at
               FROM round_results`
	if room != "" {
		rows, err = svc.db.QueryContext(ctx,
			base+" WHERE room = $1 ORDER BY decided_at DESC LIMIT $2 OFFSET $3",
			room, limit, offset)
	} else {
		rows, err = svc.db.QueryContext(ctx,
			base+" ORDER BY decided_at DESC LIMIT $1 OFFSET $2",
			limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]RoundResult, 0, limit)
	for rows.Next() {
		var r RoundResult
		if err := rows.Scan(&r.StreamID, &r.Room, &r.WinnerID, &r.WinnerName,
			&r.WinnerCount, &r.Target, &r.DecidedAt); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// StreamValues is the field list of a stream entry, in a fixed order.
func StreamValues(res RoundResult) []any {
	return []any{
		"room", res.Room,
		"wid", res.WinnerID,
		"wname", res.WinnerName,
		"wcount", res.WinnerCount,
		"target", res.Target,
		"at", res.DecidedAt.Unix(),
	}
}

// FromStream decodes a stream entry written by RecordRound.
func FromStream(m redis.XMessage) (RoundResult, error) {
	str := func(k string) (string, error) {
		v, ok := m.Values[k].(string)
		if !ok {
			return "", fmt.Errorf("%w: %s missing field %q", ErrBadStreamEntry, m.ID, k)
		}
		return v, nil
	}
	num := func(k string) (int64, error) {
		s, err := str(k)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s field %q: %v", ErrBadStreamEntry, m.ID, k, err)
		}
		return n, nil
	}

	res := RoundResult{StreamID: m.ID}
	var err error
	if res.Room, err = str("room"); err != nil {
		return res, err
	}
	if res.WinnerID, err = str("wid"); err != nil {
		return res, err
	}
	if res.WinnerName, err = str("wname"); err != nil {
		return res, err
	}
	wcount, err := num("wcount")
	if err != nil {
		return res, err
	}
	target, err := num("target")
	if err != nil {
		return res, err
	}
	at, err := num("at")
	if err != nil {
		return res, err
	}
	res.WinnerCount = int(wcount)
	res.Target = int(target)
	res.DecidedAt = time.Unix(at, 0).UTC()
	return res, nil
}

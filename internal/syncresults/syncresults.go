package syncresults

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"repcount/internal/services/results"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	batchSize  = 100
	blockFor   = 2000 * time.Millisecond
	retryAfter = time.Second
)

// Run tails the rounds stream and persists every decided round.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	go tail(ctx, rdc, db)
}

func tail(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	lastID := "0-0"
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		next, err := pollOnce(ctx, rdc, db, lastID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			zap.L().Warn("syncresults.poll", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryAfter):
			}
			continue
		}
		lastID = next
	}
}

// pollOnce reads one batch after lastID and returns the id to resume from.
// On a persist failure lastID is kept so the batch is read again.
func pollOnce(ctx context.Context, rdc *redis.Client, db *sql.DB, lastID string) (string, error) {
	res, err := rdc.XRead(ctx, &redis.XReadArgs{
		Streams: []string{results.Stream, lastID},
		Count:   batchSize,
		Block:   blockFor,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return lastID, nil
		}
		return lastID, err
	}
	if len(res) == 0 || len(res[0].Messages) == 0 {
		return lastID, nil
	}
	entries := res[0].Messages
	if err := persist(ctx, db, entries); err != nil {
		return lastID, err
	}
	return entries[len(entries)-1].ID, nil
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const ins = `INSERT INTO round_results (stream_id, room, winner_id, winner_name,
	                                        winner_count, target, decided_at)
	             VALUES ($1, $2, $3, $4, $5, $6, $7)
	             ON CONFLICT (stream_id) DO NOTHING`
	for _, m := range msgs {
		r, err := results.FromStream(m)
		if err != nil {
			zap.L().Warn("syncresults.skip", zap.String("id", m.ID), zap.Error(err))
			continue
		}
		if _, err := tx.ExecContext(ctx, ins, r.StreamID, r.Room, r.WinnerID, r.WinnerName,
			r.WinnerCount, r.Target, r.DecidedAt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

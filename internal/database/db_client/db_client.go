package db_client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS round_results (
    stream_id    TEXT PRIMARY KEY,
    room         TEXT        NOT NULL,
    winner_id    TEXT        NOT NULL,
    winner_name  TEXT        NOT NULL,
    winner_count INTEGER     NOT NULL,
    target       INTEGER     NOT NULL,
    decided_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS round_results_room_idx ON round_results (room, decided_at DESC);`

func Open(host, port, user, pass, database string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		user, pass, host, port, database,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetConnMaxIdleTime(time.Minute)
	return db, db.Ping()
}

// EnsureSchema creates the tables the service writes to.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

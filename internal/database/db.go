// Package database holds the pgx pool used by the historian. The serving
// process never touches Postgres: live session state is memory-only.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardtable/blackjack/internal/game"
)

// Connect opens a pgx pool against the given DSN and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

// InsertRoundResults writes a batch of settled rounds. One row per player per
// round; the dealer's final value and running points are denormalized in.
func InsertRoundResults(ctx context.Context, pool *pgxpool.Pool, batch []game.RoundResult) error {
	q := `
		INSERT INTO round_results
			(session_id, round, player_id, player_name, player_value, player_points, won,
			 dealer_value, dealer_points, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	for _, res := range batch {
		settledAt := time.UnixMilli(res.Timestamp)
		for _, p := range res.Players {
			if _, err := pool.Exec(ctx, q,
				res.SessionID, res.Round, p.ID, p.Name, p.Value, p.Points, p.Won,
				res.DealerValue, res.DealerPoints, settledAt,
			); err != nil {
				return fmt.Errorf("insert round result: %w", err)
			}
		}
	}
	return nil
}

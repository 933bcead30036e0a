package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// All services share one database, so any of them may be first to start.
// The advisory lock keeps concurrent migrations from racing on DDL.
const migrateLock = 14_000

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id       INTEGER PRIMARY KEY,
		username TEXT NOT NULL,
		email    TEXT NOT NULL,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		quantity    INTEGER NOT NULL CHECK (quantity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id         SERIAL PRIMARY KEY,
		product_id INTEGER NOT NULL,
		user_id    INTEGER NOT NULL,
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		status     TEXT NOT NULL CHECK (status IN ('Success', 'Cancelled'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrateLock); err != nil {
			return fmt.Errorf("migrate lock: %w", err)
		}
		for _, m := range migrations {
			if _, err := tx.Exec(ctx, m); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return nil
	})
}

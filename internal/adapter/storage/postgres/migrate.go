package postgres

import (
	"context"
	"fmt"
)

// schema is the full DDL for the ledger store. Statements are idempotent
// so Migrate can run at every deploy. The CHECK constraint on
// balance_cents is the last line of defense for the non-negative
// balance invariant; the unique settlement_id index is the write-side
// idempotency guard.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name  TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'player',
		xp            BIGINT NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		user_id       UUID PRIMARY KEY REFERENCES users(id),
		balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id            UUID PRIMARY KEY,
		user_id       UUID NOT NULL REFERENCES users(id),
		kind          TEXT NOT NULL,
		amount_cents  BIGINT NOT NULL,
		game_ref      TEXT,
		settlement_id TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_settlement_id_key
		ON transactions (settlement_id) WHERE settlement_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS transactions_latest_wins_idx
		ON transactions (created_at DESC) WHERE kind = 'WIN'`,
	`CREATE TABLE IF NOT EXISTS idempotency_logs (
		key            TEXT PRIMARY KEY,
		user_id        UUID NOT NULL,
		transaction_id UUID NOT NULL,
		kind           TEXT NOT NULL,
		amount_cents   BIGINT NOT NULL,
		response_json  BYTEA NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS pending_settlements (
		settlement_id TEXT PRIMARY KEY,
		user_id       UUID NOT NULL REFERENCES users(id),
		amount_cents  BIGINT NOT NULL CHECK (amount_cents > 0),
		kind          TEXT NOT NULL,
		game_ref      TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'PENDING',
		attempts      INT NOT NULL DEFAULT 0,
		next_retry_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS pending_settlements_due_idx
		ON pending_settlements (next_retry_at) WHERE status = 'PENDING'`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

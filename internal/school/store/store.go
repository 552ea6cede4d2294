// Package store provides the command (mutating) and query (read-only)
// stores for school records over a pair of system-versioned tables: one
// current table plus one append-only history table linked by school id.
//
// The store owns the temporal mechanism: every update or delete snapshots
// the pre-image into history with a closed [valid_from, valid_to] interval
// inside the same transaction that touches the current row, so exactly one
// current row per id exists at any instant. Application code never writes
// the history table through any other path.
package store

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "registrar/pkg/platform/tx"
)

// Schema declares the current/history table pairing and the outbox table
// the change relay drains. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS schools (
	id             BIGSERIAL PRIMARY KEY,
	name           VARCHAR(200) NOT NULL,
	address        VARCHAR(300) NOT NULL,
	principal_name VARCHAR(150) NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	row_version    BIGINT NOT NULL DEFAULT 1,
	valid_from     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS schools_history (
	id             BIGINT NOT NULL,
	name           VARCHAR(200) NOT NULL,
	address        VARCHAR(300) NOT NULL,
	principal_name VARCHAR(150) NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	row_version    BIGINT NOT NULL,
	valid_from     TIMESTAMPTZ NOT NULL,
	valid_to       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_schools_history_id_from
	ON schools_history (id, valid_from);
CREATE INDEX IF NOT EXISTS idx_schools_history_period
	ON schools_history (valid_from, valid_to);

CREATE TABLE IF NOT EXISTS outbox (
	id             UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
	ON outbox (created_at) WHERE published_at IS NULL;
`

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SQLTxRunner runs a function inside one SQL transaction threaded through
// context, so the command store and the outbox append share an atomic unit.
type SQLTxRunner struct {
	db *sql.DB
}

func NewSQLTxRunner(db *sql.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

func (r *SQLTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

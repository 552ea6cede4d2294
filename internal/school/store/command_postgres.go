package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"registrar/internal/school/models"
	"registrar/pkg/platform/sentinel"
	txcontext "registrar/pkg/platform/tx"
)

// CommandPostgres owns every mutation of the schools tables. Each operation
// runs in exactly one transaction: the ambient one from context when the
// service opened it (so the outbox append shares it), otherwise its own.
//
// Store and driver errors never escape raw: anticipated facts map to
// sentinel errors, anything else is wrapped with the failing operation.
type CommandPostgres struct {
	db    *sql.DB
	clock Clock
}

// CommandPostgresOption configures a CommandPostgres instance.
type CommandPostgresOption func(*CommandPostgres)

// WithCommandClock sets the clock used for version intervals.
func WithCommandClock(clock Clock) CommandPostgresOption {
	return func(s *CommandPostgres) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewCommandPostgres(db *sql.DB, opts ...CommandPostgresOption) *CommandPostgres {
	s := &CommandPostgres{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add inserts a new current row and assigns the identity.
func (s *CommandPostgres) Add(ctx context.Context, school *models.School) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			INSERT INTO schools (name, address, principal_name, created_at, row_version, valid_from)
			VALUES ($1, $2, $3, $4, 1, $5)
			RETURNING id
		`
		err := tx.QueryRowContext(ctx, query,
			school.Name,
			school.Address,
			school.PrincipalName,
			school.CreatedAt,
			s.clock().UTC(),
		).Scan(&school.ID)
		if err != nil {
			return fmt.Errorf("insert school: %w", err)
		}
		school.RowVersion = 1
		return nil
	})
}

// Update snapshots the current row into history and installs the new
// version, all in one transaction. The current row is locked first so
// concurrent updates to the same id serialize on the store.
func (s *CommandPostgres) Update(ctx context.Context, school *models.School, expectedVersion int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cur, err := lockCurrentRow(ctx, tx, school.ID)
		if err != nil {
			return err
		}
		if expectedVersion > 0 && cur.RowVersion != expectedVersion {
			return sentinel.ErrConflict
		}

		now := s.clock().UTC()
		if err := snapshotToHistory(ctx, tx, cur, now); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE schools
			SET name = $2, address = $3, principal_name = $4,
			    row_version = row_version + 1, valid_from = $5
			WHERE id = $1
		`, school.ID, school.Name, school.Address, school.PrincipalName, now)
		if err != nil {
			return fmt.Errorf("update school: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update school rows affected: %w", err)
		}
		if affected == 0 {
			return sentinel.ErrNoRowsAffected
		}

		school.CreatedAt = cur.CreatedAt
		school.RowVersion = cur.RowVersion + 1
		return nil
	})
}

// Delete closes out the current row: the pre-image lands in history with a
// closed interval and the current row is removed. History is never purged.
func (s *CommandPostgres) Delete(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cur, err := lockCurrentRow(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := snapshotToHistory(ctx, tx, cur, s.clock().UTC()); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete school: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete school rows affected: %w", err)
		}
		if affected == 0 {
			return sentinel.ErrNoRowsAffected
		}
		return nil
	})
}

// withTx joins the ambient transaction when the service opened one,
// otherwise runs fn in its own.
func (s *CommandPostgres) withTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(ctx, tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
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

// lockCurrentRow loads and locks the current row for id.
func lockCurrentRow(ctx context.Context, tx *sql.Tx, id int64) (*models.Version, error) {
	var v models.Version
	err := tx.QueryRowContext(ctx, `
		SELECT id, name, address, principal_name, created_at, row_version, valid_from
		FROM schools
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&v.ID, &v.Name, &v.Address, &v.PrincipalName, &v.CreatedAt, &v.RowVersion, &v.ValidFrom)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock current row: %w", err)
	}
	v.ValidTo = models.MaxValidTo
	return &v, nil
}

// snapshotToHistory appends the pre-image with a closed interval.
func snapshotToHistory(ctx context.Context, tx *sql.Tx, cur *models.Version, validTo time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO schools_history
			(id, name, address, principal_name, created_at, row_version, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, cur.ID, cur.Name, cur.Address, cur.PrincipalName, cur.CreatedAt, cur.RowVersion, cur.ValidFrom, validTo)
	if err != nil {
		return fmt.Errorf("snapshot to history: %w", err)
	}
	return nil
}

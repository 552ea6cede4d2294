package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"registrar/internal/school/models"
	"registrar/pkg/platform/sentinel"
)

// QueryPostgres is the read-only side. It may be backed by a different
// connection (read replica) than the command store; it issues plain
// SELECTs, never mutates, and never joins an ambient write transaction.
type QueryPostgres struct {
	db *sql.DB
}

func NewQueryPostgres(db *sql.DB) *QueryPostgres {
	return &QueryPostgres{db: db}
}

// GetByID returns the current row for id.
func (s *QueryPostgres) GetByID(ctx context.Context, id int64) (*models.School, error) {
	var school models.School
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, principal_name, created_at, row_version
		FROM schools
		WHERE id = $1
	`, id).Scan(&school.ID, &school.Name, &school.Address, &school.PrincipalName,
		&school.CreatedAt, &school.RowVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get school by id: %w", err)
	}
	return &school, nil
}

// GetAll returns every current row ordered by id. An empty table is
// reported as ErrNotFound; callers depend on that policy.
func (s *QueryPostgres) GetAll(ctx context.Context) ([]models.School, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, principal_name, created_at, row_version
		FROM schools
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("get all schools: %w", err)
	}
	defer rows.Close()

	var schools []models.School
	for rows.Next() {
		var school models.School
		if err := rows.Scan(&school.ID, &school.Name, &school.Address,
			&school.PrincipalName, &school.CreatedAt, &school.RowVersion); err != nil {
			return nil, fmt.Errorf("scan school: %w", err)
		}
		schools = append(schools, school)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schools: %w", err)
	}
	if len(schools) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return schools, nil
}

// versionSelect unions the current table (open interval as the sentinel
// timestamp) with the history table so range and chain queries see every
// version.
const versionSelect = `
	SELECT id, name, address, principal_name, created_at, row_version,
	       valid_from, TIMESTAMPTZ '9999-12-31 23:59:59+00' AS valid_to
	FROM schools
	UNION ALL
	SELECT id, name, address, principal_name, created_at, row_version,
	       valid_from, valid_to
	FROM schools_history
`

// GetByDateRange returns every version whose [valid_from, valid_to]
// interval overlaps [from, to], ordered by valid_from ascending (not by id
// or valid_to). Several versions of the same id may qualify.
func (s *QueryPostgres) GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Version, error) {
	query := `
		SELECT * FROM (` + versionSelect + `) AS v
		WHERE v.valid_from <= $2 AND v.valid_to >= $1
		ORDER BY v.valid_from ASC
	`
	return s.queryVersions(ctx, query, from, to)
}

// GetAllVersions returns the complete chain for one id, first insert to
// current, ordered by valid_from ascending. Deleted schools keep their
// closed chain.
func (s *QueryPostgres) GetAllVersions(ctx context.Context, id int64) ([]models.Version, error) {
	query := `
		SELECT * FROM (` + versionSelect + `) AS v
		WHERE v.id = $1
		ORDER BY v.valid_from ASC
	`
	return s.queryVersions(ctx, query, id)
}

func (s *QueryPostgres) queryVersions(ctx context.Context, query string, args ...any) ([]models.Version, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query school versions: %w", err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.PrincipalName,
			&v.CreatedAt, &v.RowVersion, &v.ValidFrom, &v.ValidTo); err != nil {
			return nil, fmt.Errorf("scan school version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate school versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return versions, nil
}

// Package service is the command/query facade over the school stores. It is
// the only component that sees both sides, which is why existence checks
// for deletes happen here: the command and query stores may be physically
// different connections.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/audit"
	schoolmetrics "registrar/internal/school/metrics"
	"registrar/internal/school/models"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// CommandStore is the mutating side. Implementations convert anticipated
// conditions to sentinel errors and never panic across this boundary.
type CommandStore interface {
	Add(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School, expectedVersion int64) error
	Delete(ctx context.Context, id int64) error
}

// QueryStore is the read-only side, possibly backed by a replica.
type QueryStore interface {
	GetByID(ctx context.Context, id int64) (*models.School, error)
	GetAll(ctx context.Context) ([]models.School, error)
	GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Version, error)
	GetAllVersions(ctx context.Context, id int64) ([]models.Version, error)
}

// ChangePublisher records the change feed.
type ChangePublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StoreTx runs a function inside one storage transaction when the backend
// supports it. The no-op runner serves the in-memory wiring.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service orchestrates the command and query stores.
type Service struct {
	commands CommandStore
	queries  QueryStore
	logger   *slog.Logger
	changes  ChangePublisher
	metrics  *schoolmetrics.Metrics
	tx       StoreTx
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithChangePublisher(publisher ChangePublisher) Option {
	return func(s *Service) { s.changes = publisher }
}

func WithMetrics(m *schoolmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

// New constructs a Service. Reader instances may pass a nil command store
// and writer instances a nil query store; the facade fails the unavailable
// side with Forbidden before touching any store.
func New(commands CommandStore, queries QueryStore, opts ...Option) *Service {
	s := &Service{
		commands: commands,
		queries:  queries,
		logger:   slog.Default(),
		tx:       noopTx{},
		tracer:   otel.Tracer("registrar/school"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stamps creation metadata, applies business defaulting and inserts the
// first version. CreatedAt is the first-ever creation instant; later
// versions inherit it verbatim.
func (s *Service) Add(ctx context.Context, name, address, principalName string) (*models.School, error) {
	ctx, span := s.tracer.Start(ctx, "school.Add")
	defer span.End()

	if err := s.requireCommands(); err != nil {
		return nil, err
	}

	school, err := models.NewSchool(name, address, principalName, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.commands.Add(txCtx, school); err != nil {
			return dErrors.Wrap(err, dErrors.CodeFailure, "failed to create school")
		}
		return s.emit(txCtx, audit.ActionSchoolCreated, school.ID, school.RowVersion)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("school.id", school.ID))
	if s.metrics != nil {
		s.metrics.SchoolsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "school created",
		"request_id", requestcontext.RequestID(ctx),
		"school_id", school.ID,
	)
	return school, nil
}

// Update installs a new temporal version of the school. expectedVersion
// zero skips the optimistic concurrency check (last writer wins, matching
// the original behavior); a positive value must match the stored row
// version or the update fails with Conflict.
func (s *Service) Update(ctx context.Context, school *models.School, expectedVersion int64) error {
	ctx, span := s.tracer.Start(ctx, "school.Update",
		trace.WithAttributes(attribute.Int64("school.id", school.ID)))
	defer span.End()

	if err := s.requireCommands(); err != nil {
		return err
	}

	if err := school.Validate(); err != nil {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.commands.Update(txCtx, school, expectedVersion); err != nil {
			return translateMutationErr(err, "failed to update school")
		}
		return s.emit(txCtx, audit.ActionSchoolUpdated, school.ID, school.RowVersion)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.SchoolsUpdated.Inc()
	}
	s.logger.InfoContext(ctx, "school updated",
		"request_id", requestcontext.RequestID(ctx),
		"school_id", school.ID,
		"row_version", school.RowVersion,
	)
	return nil
}

// Delete verifies existence on the query side first, then delegates to the
// command store. Check before mutate: the two stores may be different
// connections, and a query-side NotFound must win without attempting the
// delete.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "school.Delete",
		trace.WithAttributes(attribute.Int64("school.id", id)))
	defer span.End()

	if err := s.requireCommands(); err != nil {
		return err
	}
	if err := s.requireQueries(); err != nil {
		return err
	}

	if _, err := s.queries.GetByID(ctx, id); err != nil {
		return translateQueryErr(err, "school not found")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.commands.Delete(txCtx, id); err != nil {
			return translateMutationErr(err, "failed to delete school")
		}
		return s.emit(txCtx, audit.ActionSchoolDeleted, id, 0)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.SchoolsDeleted.Inc()
	}
	s.logger.InfoContext(ctx, "school deleted",
		"request_id", requestcontext.RequestID(ctx),
		"school_id", id,
	)
	return nil
}

// GetByID returns the current version of a school.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.School, error) {
	ctx, span := s.tracer.Start(ctx, "school.GetByID",
		trace.WithAttributes(attribute.Int64("school.id", id)))
	defer span.End()

	if err := s.requireQueries(); err != nil {
		return nil, err
	}
	defer s.observe("get_by_id", time.Now())

	school, err := s.queries.GetByID(ctx, id)
	if err != nil {
		return nil, translateQueryErr(err, "school not found")
	}
	return school, nil
}

// GetAll returns every current school. An empty registry surfaces as
// NotFound, replicating the established policy.
func (s *Service) GetAll(ctx context.Context) ([]models.School, error) {
	ctx, span := s.tracer.Start(ctx, "school.GetAll")
	defer span.End()

	if err := s.requireQueries(); err != nil {
		return nil, err
	}
	defer s.observe("get_all", time.Now())

	schools, err := s.queries.GetAll(ctx)
	if err != nil {
		return nil, translateQueryErr(err, "no schools found")
	}
	return schools, nil
}

// GetByDateRange returns every version whose validity interval overlaps
// [from, to], ordered by validFrom ascending.
func (s *Service) GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Version, error) {
	ctx, span := s.tracer.Start(ctx, "school.GetByDateRange")
	defer span.End()

	if err := s.requireQueries(); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, dErrors.New(dErrors.CodeValidation, "toDate must not precede fromDate")
	}
	defer s.observe("get_by_date_range", time.Now())

	versions, err := s.queries.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, translateQueryErr(err, "no school versions in range")
	}
	if s.metrics != nil {
		s.metrics.VersionsReturned.Observe(float64(len(versions)))
	}
	return versions, nil
}

// GetAllVersions returns the full version chain for one school.
func (s *Service) GetAllVersions(ctx context.Context, id int64) ([]models.Version, error) {
	ctx, span := s.tracer.Start(ctx, "school.GetAllVersions",
		trace.WithAttributes(attribute.Int64("school.id", id)))
	defer span.End()

	if err := s.requireQueries(); err != nil {
		return nil, err
	}
	defer s.observe("get_all_versions", time.Now())

	versions, err := s.queries.GetAllVersions(ctx, id)
	if err != nil {
		return nil, translateQueryErr(err, "school history not found")
	}
	if s.metrics != nil {
		s.metrics.VersionsReturned.Observe(float64(len(versions)))
	}
	return versions, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, schoolID, rowVersion int64) error {
	if s.changes == nil {
		return nil
	}
	err := s.changes.Emit(ctx, audit.Event{
		Action:     action,
		SchoolID:   schoolID,
		RowVersion: rowVersion,
		RequestID:  requestcontext.RequestID(ctx),
		Timestamp:  requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record change event")
	}
	return nil
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(operation, start)
	}
}

func (s *Service) requireCommands() error {
	if s.commands == nil {
		return dErrors.New(dErrors.CodeForbidden, "write operations are not served by this instance")
	}
	return nil
}

func (s *Service) requireQueries() error {
	if s.queries == nil {
		return dErrors.New(dErrors.CodeForbidden, "read operations are not served by this instance")
	}
	return nil
}

func translateMutationErr(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "school not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "school was modified concurrently")
	case errors.Is(err, sentinel.ErrNoRowsAffected):
		return dErrors.New(dErrors.CodeFailure, message)
	case dErrors.HasCode(err, dErrors.CodeFailure):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeFailure, message)
	}
}

func translateQueryErr(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, message)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "query failed")
}

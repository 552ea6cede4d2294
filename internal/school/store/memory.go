package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"registrar/internal/school/models"
	"registrar/pkg/platform/sentinel"
)

// Clock abstracts transaction time for testability.
type Clock func() time.Time

// InMemory is a mutex-guarded temporal table implementing both the command
// and query interfaces. Wire the same instance into both sides of the
// service when running without PostgreSQL; history semantics match the
// SQL stores exactly.
type InMemory struct {
	mu      sync.RWMutex
	nextID  int64
	current map[int64]models.Version
	history map[int64][]models.Version
	clock   Clock
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the clock used for version intervals.
func WithClock(clock Clock) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		current: make(map[int64]models.Version),
		history: make(map[int64][]models.Version),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add inserts a new current row and assigns the identity.
func (s *InMemory) Add(ctx context.Context, school *models.School) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	school.ID = s.nextID
	school.RowVersion = 1

	s.current[school.ID] = models.Version{
		School:    *school,
		ValidFrom: s.clock().UTC(),
		ValidTo:   models.MaxValidTo,
	}
	return nil
}

// Update snapshots the current row into history and installs the new
// version. expectedVersion > 0 enables the optimistic concurrency check.
func (s *InMemory) Update(ctx context.Context, school *models.School, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.current[school.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if expectedVersion > 0 && cur.RowVersion != expectedVersion {
		return sentinel.ErrConflict
	}

	now := s.clock().UTC()

	retired := cur
	retired.ValidTo = now
	s.history[school.ID] = append(s.history[school.ID], retired)

	next := cur
	next.ApplyUpdate(school)
	next.RowVersion++
	next.ValidFrom = now
	s.current[school.ID] = next

	// Reflect store-owned fields back to the caller, matching the SQL store.
	school.CreatedAt = next.CreatedAt
	school.RowVersion = next.RowVersion
	return nil
}

// Delete closes out the current row. History is never purged; ids are
// never reused because nextID only grows.
func (s *InMemory) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.current[id]
	if !ok {
		return sentinel.ErrNotFound
	}

	retired := cur
	retired.ValidTo = s.clock().UTC()
	s.history[id] = append(s.history[id], retired)
	delete(s.current, id)
	return nil
}

// GetByID returns the current row, snapshot-consistent under the read lock.
func (s *InMemory) GetByID(ctx context.Context, id int64) (*models.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur, ok := s.current[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	school := cur.School
	return &school, nil
}

// GetAll returns every current row ordered by id. An empty table is
// reported as ErrNotFound; callers depend on that policy.
func (s *InMemory) GetAll(ctx context.Context) ([]models.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.current) == 0 {
		return nil, sentinel.ErrNotFound
	}
	schools := make([]models.School, 0, len(s.current))
	for _, cur := range s.current {
		schools = append(schools, cur.School)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].ID < schools[j].ID })
	return schools, nil
}

// GetByDateRange returns every version, historical or current, whose
// validity interval overlaps [from, to], ordered by validFrom ascending.
func (s *InMemory) GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var versions []models.Version
	for _, chain := range s.history {
		for _, v := range chain {
			if v.Overlaps(from, to) {
				versions = append(versions, v)
			}
		}
	}
	for _, cur := range s.current {
		if cur.Overlaps(from, to) {
			versions = append(versions, cur)
		}
	}
	if len(versions) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].ValidFrom.Before(versions[j].ValidFrom)
	})
	return versions, nil
}

// GetAllVersions returns the complete version chain for one id, first
// insert to current, ordered by validFrom ascending. Deleted schools keep
// their closed chain.
func (s *InMemory) GetAllVersions(ctx context.Context, id int64) ([]models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make([]models.Version, 0, len(s.history[id])+1)
	versions = append(versions, s.history[id]...)
	if cur, ok := s.current[id]; ok {
		versions = append(versions, cur)
	}
	if len(versions) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].ValidFrom.Before(versions[j].ValidFrom)
	})
	return versions, nil
}

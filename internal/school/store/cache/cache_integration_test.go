//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "registrar/internal/platform/redis"
	"registrar/internal/school/models"
	"registrar/internal/school/store"
	"registrar/internal/school/store/cache"
	"registrar/pkg/testutil/containers"
)

// countingSource wraps the in-memory store and counts pass-throughs.
type countingSource struct {
	*store.InMemory
	getByIDCalls int
	getAllCalls  int
}

func (s *countingSource) GetByID(ctx context.Context, id int64) (*models.School, error) {
	s.getByIDCalls++
	return s.InMemory.GetByID(ctx, id)
}

func (s *countingSource) GetAll(ctx context.Context) ([]models.School, error) {
	s.getAllCalls++
	return s.InMemory.GetAll(ctx)
}

type QueryCacheSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	client *platformredis.Client
	source *countingSource
	cache  *cache.QueryCache
}

func TestQueryCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(QueryCacheSuite))
}

func (s *QueryCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())

	client, err := platformredis.New(s.redis.Addr)
	s.Require().NoError(err)
	s.client = client
}

func (s *QueryCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.source = &countingSource{InMemory: store.NewInMemory()}
	s.cache = cache.New(s.source, s.client, time.Minute)
}

func (s *QueryCacheSuite) addSchool(name string) *models.School {
	school, err := models.NewSchool(name, "1 Main Street", "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.source.Add(context.Background(), school))
	return school
}

func (s *QueryCacheSuite) TestGetByIDServedFromCacheOnSecondRead() {
	ctx := context.Background()
	school := s.addSchool("Northside High")

	first, err := s.cache.GetByID(ctx, school.ID)
	s.Require().NoError(err)

	second, err := s.cache.GetByID(ctx, school.ID)
	s.Require().NoError(err)

	s.Equal(first, second, "repeated reads must return identical payloads")
	s.Equal(1, s.source.getByIDCalls, "second read must be served from cache")
}

func (s *QueryCacheSuite) TestGetByIDMissIsNotCached() {
	ctx := context.Background()

	_, err := s.cache.GetByID(ctx, 404)
	s.Error(err)
	_, err = s.cache.GetByID(ctx, 404)
	s.Error(err)

	s.Equal(2, s.source.getByIDCalls)
}

func (s *QueryCacheSuite) TestGetAllServedFromCache() {
	ctx := context.Background()
	s.addSchool("Alpha")
	s.addSchool("Bravo")

	first, err := s.cache.GetAll(ctx)
	s.Require().NoError(err)
	second, err := s.cache.GetAll(ctx)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(1, s.source.getAllCalls)
}

func (s *QueryCacheSuite) TestExpiredEntryFallsThrough() {
	ctx := context.Background()
	school := s.addSchool("Northside High")

	shortCache := cache.New(s.source, s.client, 50*time.Millisecond)

	_, err := shortCache.GetByID(ctx, school.ID)
	s.Require().NoError(err)

	time.Sleep(100 * time.Millisecond)

	_, err = shortCache.GetByID(ctx, school.ID)
	s.Require().NoError(err)
	s.Equal(2, s.source.getByIDCalls)
}

func (s *QueryCacheSuite) TestRangeQueriesBypassCache() {
	ctx := context.Background()
	school := s.addSchool("Northside High")

	for i := 0; i < 2; i++ {
		versions, err := s.cache.GetAllVersions(ctx, school.ID)
		s.Require().NoError(err)
		s.Len(versions, 1)
	}
}

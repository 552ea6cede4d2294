// Package cache provides a TTL-bounded redis read-through decorator for the
// query store. It is wired on reader instances only: those already serve
// eventually consistent reads relative to the writer, so a short TTL adds
// no new consistency class, and repeated point reads replay identical
// payloads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	platformredis "registrar/internal/platform/redis"
	"registrar/internal/school/models"
)

// Source is the query store being decorated.
type Source interface {
	GetByID(ctx context.Context, id int64) (*models.School, error)
	GetAll(ctx context.Context) ([]models.School, error)
	GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Version, error)
	GetAllVersions(ctx context.Context, id int64) ([]models.Version, error)
}

// QueryCache caches GetByID and GetAll. Range and history queries hit the
// store directly; their result space is unbounded and rarely repeated.
type QueryCache struct {
	source Source
	client *platformredis.Client
	ttl    time.Duration
}

func New(source Source, client *platformredis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{source: source, client: client, ttl: ttl}
}

func (c *QueryCache) GetByID(ctx context.Context, id int64) (*models.School, error) {
	key := fmt.Sprintf("school:id:%d", id)
	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var school models.School
		if err := json.Unmarshal(cached, &school); err == nil {
			return &school, nil
		}
	}

	school, err := c.source.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, school)
	return school, nil
}

func (c *QueryCache) GetAll(ctx context.Context) ([]models.School, error) {
	const key = "school:all"
	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var schools []models.School
		if err := json.Unmarshal(cached, &schools); err == nil && len(schools) > 0 {
			return schools, nil
		}
	}

	schools, err := c.source.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, schools)
	return schools, nil
}

func (c *QueryCache) GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Version, error) {
	return c.source.GetByDateRange(ctx, from, to)
}

func (c *QueryCache) GetAllVersions(ctx context.Context, id int64) ([]models.Version, error) {
	return c.source.GetAllVersions(ctx, id)
}

// set is best-effort: a cache write failure never fails the read.
func (c *QueryCache) set(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedRepo wraps a Repository with a read-through Redis cache for single
// product lookups. Search is never cached; cursors must see live rows.
type CachedRepo struct {
	Repository
	rc  *redis.Client
	ttl time.Duration
	log logrus.FieldLogger
}

func NewCachedRepo(next Repository, rc *redis.Client, ttl time.Duration, log logrus.FieldLogger) *CachedRepo {
	return &CachedRepo{Repository: next, rc: rc, ttl: ttl, log: log.WithField("component", "product-cache")}
}

func cacheKey(id uuid.UUID) string { return "product:" + id.String() }

func (c *CachedRepo) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	raw, err := c.rc.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var p Product
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		c.log.WithField("id", id).Warn("dropping undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.WithError(err).Warn("cache read failed")
	}

	p, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		if err := c.rc.Set(ctx, cacheKey(id), b, c.ttl).Err(); err != nil {
			c.log.WithError(err).Warn("cache write failed")
		}
	}
	return p, nil
}

func (c *CachedRepo) Update(ctx context.Context, p *Product) error {
	if err := c.Repository.Update(ctx, p); err != nil {
		return err
	}
	c.evict(ctx, p.ID)
	return nil
}

func (c *CachedRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := c.Repository.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	c.evict(ctx, id)
	return ok, nil
}

func (c *CachedRepo) evict(ctx context.Context, id uuid.UUID) {
	if err := c.rc.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.log.WithError(err).WithField("id", id).Warn("cache eviction failed")
	}
}

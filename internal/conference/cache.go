package conference

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedReader is a read-through cache over the public conference reads.
// Published conferences change rarely and are read on every registration
// page load, so slug lookups and seat-type listings are kept in Redis and
// invalidated whenever the owner writes.  A nil Redis client degrades to
// plain repository reads.
type CachedReader struct {
	repo   *Repo
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewCachedReader wraps the repository with a Redis cache.
func NewCachedReader(repo *Repo, rdb *redis.Client, ttl time.Duration, prefix string) *CachedReader {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if prefix == "" {
		prefix = "conference"
	}
	return &CachedReader{repo: repo, rdb: rdb, ttl: ttl, prefix: prefix}
}

// GetBySlug returns a published conference by slug, from cache when warm.
// Unpublished conferences are never cached and read as not found.
func (c *CachedReader) GetBySlug(ctx context.Context, slug string) (*Conference, error) {
	key := c.prefix + ":slug:" + slug
	var conf Conference
	if c.lookup(ctx, key, &conf) {
		return &conf, nil
	}
	got, err := c.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !got.Published {
		return nil, ErrNotFound
	}
	c.store(ctx, key, got)
	return got, nil
}

// SeatTypes returns the seat types of a conference, from cache when warm.
func (c *CachedReader) SeatTypes(ctx context.Context, conferenceID string) ([]SeatType, error) {
	key := c.prefix + ":seats:" + conferenceID
	var seats []SeatType
	if c.lookup(ctx, key, &seats) {
		return seats, nil
	}
	seats, err := c.repo.SeatTypes(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, seats)
	return seats, nil
}

// Invalidate drops the cached entries of a conference after an owner
// write.  Cache errors are logged, never surfaced: the next read simply
// misses.
func (c *CachedReader) Invalidate(ctx context.Context, conferenceID, slug string) {
	if c.rdb == nil {
		return
	}
	keys := []string{c.prefix + ":seats:" + conferenceID}
	if slug != "" {
		keys = append(keys, c.prefix+":slug:"+slug)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("conference-cache: invalidate %s: %v", conferenceID, err)
	}
}

func (c *CachedReader) lookup(ctx context.Context, key string, out any) bool {
	if c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("conference-cache: get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("conference-cache: decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *CachedReader) store(ctx context.Context, key string, v any) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("conference-cache: encode %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("conference-cache: set %s: %v", key, err)
	}
}

package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps the Redis client with a tag-aware read-through layer.
//
// Every cached value is registered under the tags of the entities it was
// built from ("tag:project:<id>", "tag:user:<id>", ...). A mutation does not
// need to know the literal keys a view was cached under: it invalidates the
// tags, and every key registered under them is dropped.
//
// All operations are best-effort. A Redis failure is logged and treated as
// a cache miss; it never reaches the caller as an error.
type Cache struct {
	RDB *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{RDB: rdb}
}

// tagTTLSlack keeps tag sets alive slightly longer than the values they
// index, so invalidation still finds keys that are about to expire.
const tagTTLSlack = 5 * time.Minute

// GetJSON loads key into dest. Returns false on miss or on any Redis error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.RDB == nil {
		return false
	}
	raw, err := c.RDB.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("[Cache] GET %s failed: %v", key, err)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("[Cache] corrupt entry at %s, dropping: %v", key, err)
		c.RDB.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores v under key with a TTL and registers the key under every
// given tag.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration, tags ...string) {
	if c == nil || c.RDB == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Cache] marshal for %s failed: %v", key, err)
		return
	}

	pipe := c.RDB.TxPipeline()
	pipe.Set(ctx, key, raw, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tag, key)
		pipe.Expire(ctx, tag, ttl+tagTTLSlack)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[Cache] SET %s failed: %v", key, err)
	}
}

// InvalidateTags drops every key registered under the given tags, then the
// tag sets themselves. Called after the surrounding DB transaction commits;
// failures are logged and swallowed so a cache outage never blocks a
// mutation.
func (c *Cache) InvalidateTags(ctx context.Context, tags ...string) {
	if c == nil || c.RDB == nil || len(tags) == 0 {
		return
	}
	for _, tag := range tags {
		keys, err := c.RDB.SMembers(ctx, tag).Result()
		if err != nil && err != redis.Nil {
			log.Printf("[Cache] SMEMBERS %s failed: %v", tag, err)
			continue
		}
		if len(keys) > 0 {
			if err := c.RDB.Del(ctx, keys...).Err(); err != nil {
				log.Printf("[Cache] DEL under %s failed: %v", tag, err)
			}
		}
		if err := c.RDB.Del(ctx, tag).Err(); err != nil {
			log.Printf("[Cache] DEL tag %s failed: %v", tag, err)
		}
	}
}

// Delete removes literal keys. Used for the few fixed-name entries that are
// cheaper to address directly than through tags.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.RDB == nil || len(keys) == 0 {
		return
	}
	if err := c.RDB.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[Cache] DEL failed: %v", err)
	}
}

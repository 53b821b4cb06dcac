package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"opsdesk/src/config"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores serialized read results per entity type. Every entry key embeds
// the entity's generation counter, so bumping the counter orphans all cached
// reads for that entity at once and they expire on their own.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// GetCache wraps the shared redis client. A nil client yields a cache that never hits.
func GetCache() *Cache {
	return NewCache(GetRedisClient(), config.CACHE_TTL)
}

func generationKey(entity string) string {
	return fmt.Sprintf("opsdesk:%s:gen", entity)
}

func (c *Cache) generation(ctx context.Context, entity string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(entity)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *Cache) key(ctx context.Context, entity string, suffix string) (string, error) {
	gen, err := c.generation(ctx, entity)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("opsdesk:%s:g%d:%s", entity, gen, suffix), nil
}

// Get decodes the cached value into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, entity string, suffix string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	key, err := c.key(ctx, entity, suffix)
	if err != nil {
		log.Printf("[cache] Error reading generation for %s: %s\n", entity, err.Error())
		return false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] Error reading %s: %s\n", key, err.Error())
		}
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		log.Printf("[cache] Error decoding %s: %s\n", key, err.Error())
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, entity string, suffix string, value any) {
	if c == nil || c.rdb == nil {
		return
	}
	key, err := c.key(ctx, entity, suffix)
	if err != nil {
		log.Printf("[cache] Error reading generation for %s: %s\n", entity, err.Error())
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		log.Printf("[cache] Error encoding %s: %s\n", key, err.Error())
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.Printf("[cache] Error writing %s: %s\n", key, err.Error())
	}
}

// Invalidate drops every cached read of entity by advancing its generation.
func (c *Cache) Invalidate(ctx context.Context, entity string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, generationKey(entity)).Err(); err != nil {
		log.Printf("[cache] Error invalidating %s: %s\n", entity, err.Error())
	}
}

func revokedKey(tokenId string) string {
	return fmt.Sprintf("opsdesk:revoked:%s", tokenId)
}

// revoked holds token ids revoked while no redis is configured. It only covers
// the current process.
var revoked = struct {
	sync.Mutex
	until map[string]time.Time
}{until: map[string]time.Time{}}

var ErrNoTokenID = errors.New("token has no id and cannot be revoked")

// RevokeToken denies tokenId until it would have expired anyway.
func (c *Cache) RevokeToken(ctx context.Context, tokenId string, expires time.Time) error {
	if tokenId == "" {
		return ErrNoTokenID
	}
	ttl := time.Until(expires)
	if ttl <= 0 {
		return nil
	}
	if c == nil || c.rdb == nil {
		revoked.Lock()
		revoked.until[tokenId] = expires
		revoked.Unlock()
		return nil
	}
	return c.rdb.Set(ctx, revokedKey(tokenId), 1, ttl).Err()
}

func (c *Cache) TokenRevoked(ctx context.Context, tokenId string) bool {
	if tokenId == "" {
		return false
	}
	if c == nil || c.rdb == nil {
		return revokedLocally(tokenId, time.Now())
	}
	n, err := c.rdb.Exists(ctx, revokedKey(tokenId)).Result()
	if err != nil {
		log.Printf("[cache] Error checking revocation of %s: %s\n", tokenId, err.Error())
		return false
	}
	return n > 0
}

func revokedLocally(tokenId string, now time.Time) bool {
	revoked.Lock()
	defer revoked.Unlock()
	for id, until := range revoked.until {
		if !now.Before(until) {
			delete(revoked.until, id)
		}
	}
	_, ok := revoked.until[tokenId]
	return ok
}

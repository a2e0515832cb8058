package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plateful/recipescout/internal/recipe"
)

const (
	redisEntryPrefix  = "recipescout:entry:"
	redisSourcePrefix = "recipescout:source:"
	sourceRetention   = 7 * 24 * time.Hour
)

// RedisStore implements Store on a Redis server, leaning on native key
// expiry for lifetimes. SET with EX is atomic, so readers never observe a
// partial entry.
type RedisStore struct {
	Client *redis.Client
	TTLs   TTLTable
}

// NewRedisStore connects to addr with default options.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{Client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) ttls() TTLTable {
	if s.TTLs != nil {
		return s.TTLs
	}
	return DefaultTTLs()
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	b, err := s.Client.Get(ctx, redisEntryPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false, nil
	}
	return &e, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, records []recipe.Recipe, class recipe.Class) error {
	return s.write(ctx, Entry{Key: key, Records: records, Class: class})
}

func (s *RedisStore) PutRaw(ctx context.Context, key string, raw []byte) error {
	return s.write(ctx, Entry{Key: key, Raw: raw, Class: recipe.ClassRaw})
}

func (s *RedisStore) write(ctx context.Context, e Entry) error {
	ttl := s.ttls().TTLFor(e.Class)
	now := time.Now().UTC()
	e.CreatedAt = now
	e.ExpiresAt = now.Add(ttl)
	b, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, redisEntryPrefix+e.Key, b, ttl).Err()
}

// Sweep is a no-op: Redis expires entries natively.
func (s *RedisStore) Sweep(context.Context) (int, error) { return 0, nil }

func (s *RedisStore) TouchSource(ctx context.Context, url string) error {
	stamp := time.Now().UTC().Format(time.RFC3339)
	return s.Client.Set(ctx, redisSourcePrefix+SourceKey(url), stamp, sourceRetention).Err()
}

func (s *RedisStore) LastSource(ctx context.Context, url string) (time.Time, bool) {
	v, err := s.Client.Get(ctx, redisSourcePrefix+SourceKey(url)).Result()
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/Station-Manager/jsonmapper/descriptor"
)

// DefaultRedisTTL bounds how long a descriptor survives in redis.
const DefaultRedisTTL = 24 * time.Hour

// Redis stores descriptors as JSON documents in redis, so that several
// processes mapping the same classes share one cache.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisWithClient wraps an existing client. A zero ttl means DefaultRedisTTL; a negative ttl disables expiry.
func NewRedisWithClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *Redis {
	if ttl == 0 {
		ttl = DefaultRedisTTL
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// NewRedis connects to a single redis server at addr.
func NewRedis(addr, keyPrefix string, ttl time.Duration) *Redis {
	return NewRedisWithClient(redis.NewClient(&redis.Options{Addr: addr}), keyPrefix, ttl)
}

func (r *Redis) Get(ctx context.Context, key string) (descriptor.Descriptor, bool, error) {
	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return descriptor.Descriptor{}, false, nil
		}
		return descriptor.Descriptor{}, false, fmt.Errorf("failed to get descriptor: %w", err)
	}
	var d descriptor.Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return descriptor.Descriptor{}, false, fmt.Errorf("failed to unmarshal descriptor: %w", err)
	}
	return d, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, d descriptor.Descriptor) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	if err := r.client.Set(ctx, r.keyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store descriptor: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

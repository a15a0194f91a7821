package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a second-level embedding cache shared between instances.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "brain:embedding:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(cacheKey string) string {
	sum := sha256.Sum256([]byte(cacheKey))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get returns ok=false on a miss. Errors are connection or decode failures.
func (c *RedisCache) Get(ctx context.Context, cacheKey string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, c.key(cacheKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	values, err := decodeVector(raw)
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (c *RedisCache) Set(ctx context.Context, cacheKey string, values []float32) error {
	return c.client.Set(ctx, c.key(cacheKey), encodeVector(values), c.ttl).Err()
}

// encodeVector packs float32 values little-endian, four bytes each.
func encodeVector(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached embedding: %d bytes", len(raw))
	}
	values := make([]float32, len(raw)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return values, nil
}

// internal/db/redis.go
package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDB caches public-token resolution for the unauthenticated share-link
// endpoint. Aggregates are never cached; they are recomputed on every read.
// All methods are nil-safe so the API runs fine without Redis; a nil
// receiver is a cache that never hits.
type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(redisURL string) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("[Redis] ✅ Connected to Redis")
	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() {
	if r != nil && r.Client != nil {
		r.Client.Close()
		log.Println("[Redis] Connection closed")
	}
}

const publicTokenTTL = time.Hour

func publicTokenKey(token string) string {
	return "pubtoken:" + token
}

// SetPublicToken remembers which estimation a public token unlocks.
func (r *RedisDB) SetPublicToken(ctx context.Context, token, estimationID string) error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Set(ctx, publicTokenKey(token), estimationID, publicTokenTTL).Err()
}

// GetPublicToken resolves a public token to an estimation id. A miss reports
// found=false with a nil error.
func (r *RedisDB) GetPublicToken(ctx context.Context, token string) (string, bool, error) {
	if r == nil || r.Client == nil {
		return "", false, nil
	}
	id, err := r.Client.Get(ctx, publicTokenKey(token)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// InvalidatePublicToken drops the mapping when a token is disabled.
func (r *RedisDB) InvalidatePublicToken(ctx context.Context, token string) error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Del(ctx, publicTokenKey(token)).Err()
}

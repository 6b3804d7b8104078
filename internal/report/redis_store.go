package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed report store.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStore{
		client: client,
		prefix: "sync_report:",
		ttl:    ttl,
	}
}

func (r *RedisStore) key(subject string) string {
	return r.prefix + subject
}

func (r *RedisStore) Save(ctx context.Context, subject string, rep Report) error {
	if subject == "" {
		return fmt.Errorf("report: missing subject")
	}

	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("report: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(subject), data, r.ttl).Err()
}

func (r *RedisStore) Take(ctx context.Context, subject string) (*Report, error) {
	val, err := r.client.GetDel(ctx, r.key(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var rep Report
	if err := json.Unmarshal([]byte(val), &rep); err != nil {
		return nil, fmt.Errorf("report: failed to unmarshal: %w", err)
	}

	return &rep, nil
}

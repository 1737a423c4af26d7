package intelligence

import (
	"context"
	"encoding/json"
	"time"

	"ridelink/models"

	"github.com/go-redis/redis/v8"
)

const aiContextPrefix = "ai:ctx:"

// RedisContextStore keeps the last valid slot set per phone, so a turn that
// fails extraction never loses what the user already confirmed.
type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	return &RedisContextStore{client: client, ttl: ttl}
}

func (s *RedisContextStore) Get(ctx context.Context, phone string) (*models.RideSlots, error) {
	data, err := s.client.Get(ctx, aiContextPrefix+phone).Result()
	if err == redis.Nil {
		return &models.RideSlots{}, nil
	}
	if err != nil {
		return nil, err
	}
	var slots models.RideSlots
	if err := json.Unmarshal([]byte(data), &slots); err != nil {
		return nil, err
	}
	return &slots, nil
}

func (s *RedisContextStore) Set(ctx context.Context, phone string, slots *models.RideSlots) error {
	b, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, aiContextPrefix+phone, b, s.ttl).Err()
}

func (s *RedisContextStore) Clear(ctx context.Context, phone string) error {
	return s.client.Del(ctx, aiContextPrefix+phone).Err()
}

// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"ridelink/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client.
	CacheClient *redis.Client
	// AIContextCacheClient holds per-phone AI extraction context.
	AIContextCacheClient *redis.Client
	// BookingLockClient backs the per-party booking locks.
	BookingLockClient *redis.Client
)

func newRedisClient(db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (db %d): %v", db, err)
	}
	return client
}

// InitRedis initializes all Redis clients up front.
func InitRedis() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB)
	AIContextCacheClient = newRedisClient(config.AppConfig.RedisAIContextDB)
	BookingLockClient = newRedisClient(config.AppConfig.RedisBookingLockDB)
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		CacheClient = newRedisClient(config.AppConfig.RedisCacheDB)
	}
	return CacheClient
}

// GetAIContextCacheClient returns the Redis client for AI context caching.
func GetAIContextCacheClient() *redis.Client {
	if AIContextCacheClient == nil {
		AIContextCacheClient = newRedisClient(config.AppConfig.RedisAIContextDB)
	}
	return AIContextCacheClient
}

// GetBookingLockClient returns the Redis client used for booking serialization.
func GetBookingLockClient() *redis.Client {
	if BookingLockClient == nil {
		BookingLockClient = newRedisClient(config.AppConfig.RedisBookingLockDB)
	}
	return BookingLockClient
}

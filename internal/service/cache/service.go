package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/Sorosliu1029/follower-change/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const backend = "redis"

type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

type CacheConfig struct {
	Host     string
	Port     int
	Password util.Secret
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password.Reveal(),
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisConfig.ReadyTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewStorageError("failed to connect to Redis", backend, "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

// NextID increments the counter at key and returns the new value.
func (c *CacheService) NextID(ctx context.Context, key string) (int64, error) {
	id, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		c.logger.Error("Cache incr failed", zap.String("key", key), zap.Error(err))
		return 0, errors.NewStorageError("incr failed", backend, "incr", key, err)
	}
	return id, nil
}

// PutHash writes fields to the hash at key and, when ttl is positive, sets its
// expiry in the same transaction.
func (c *CacheService) PutHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("Cache hset failed", zap.String("key", key), zap.Int("fields", len(fields)), zap.Error(err))
		return errors.NewStorageError("hset failed", backend, "hset", key, err)
	}
	return nil
}

// HGetBytes returns the field value and whether it existed.
func (c *CacheService) HGetBytes(ctx context.Context, key, field string) ([]byte, bool, error) {
	value, err := c.client.HGet(ctx, key, field).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error("Cache hget failed", zap.String("key", key), zap.String("field", field), zap.Error(err))
		return nil, false, errors.NewStorageError("hget failed", backend, "hget", key, err)
	}
	return value, true, nil
}

// HMGet returns the requested fields; missing fields are absent from the map.
func (c *CacheService) HMGet(ctx context.Context, key string, fields ...string) (map[string]string, error) {
	values, err := c.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		c.logger.Error("Cache hmget failed", zap.String("key", key), zap.Error(err))
		return nil, errors.NewStorageError("hmget failed", backend, "hmget", key, err)
	}

	out := make(map[string]string, len(fields))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[fields[i]] = s
		}
	}
	return out, nil
}

func (c *CacheService) ZAdd(ctx context.Context, key string, id int64) error {
	member := redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)}
	if err := c.client.ZAdd(ctx, key, member).Err(); err != nil {
		c.logger.Error("Cache zadd failed", zap.String("key", key), zap.Error(err))
		return errors.NewStorageError("zadd failed", backend, "zadd", key, err)
	}
	return nil
}

// ZRevRangeIDs returns up to limit members with the highest scores.
func (c *CacheService) ZRevRangeIDs(ctx context.Context, key string, limit int) ([]int64, error) {
	members, err := c.client.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		c.logger.Error("Cache zrevrange failed", zap.String("key", key), zap.Error(err))
		return nil, errors.NewStorageError("zrevrange failed", backend, "zrevrange", key, err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			c.logger.Warn("Ignoring non-numeric index member", zap.String("key", key), zap.String("member", m))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *CacheService) ZRem(ctx context.Context, key string, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = strconv.FormatInt(id, 10)
	}

	if err := c.client.ZRem(ctx, key, args...).Err(); err != nil {
		c.logger.Error("Cache zrem failed", zap.String("key", key), zap.Error(err))
		return errors.NewStorageError("zrem failed", backend, "zrem", key, err)
	}
	return nil
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}

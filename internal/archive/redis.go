package archive

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Cache is the subset of the Redis cache service the store needs.
type Cache interface {
	NextID(ctx context.Context, key string) (int64, error)
	PutHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error
	HGetBytes(ctx context.Context, key, field string) ([]byte, bool, error)
	HMGet(ctx context.Context, key string, fields ...string) (map[string]string, error)
	ZAdd(ctx context.Context, key string, id int64) error
	ZRevRangeIDs(ctx context.Context, key string, limit int) ([]int64, error)
	ZRem(ctx context.Context, key string, ids ...int64) error
}

const (
	fieldName      = "name"
	fieldCreatedAt = "created_at"
	fieldContent   = "content"
)

// RedisStore keeps each archive in a hash and indexes ids in a sorted set.
// Hash expiry implements retention; index entries whose hash is gone are
// pruned on List.
type RedisStore struct {
	cache  Cache
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisStore(cache Cache, prefix string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{cache: cache, prefix: prefix, logger: logger, now: time.Now}
}

func (s *RedisStore) seqKey() string   { return s.prefix + ":seq" }
func (s *RedisStore) indexKey() string { return s.prefix + ":index" }
func (s *RedisStore) itemKey(id int64) string {
	return s.prefix + ":item:" + strconv.FormatInt(id, 10)
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]Archive, error) {
	ids, err := s.cache.ZRevRangeIDs(ctx, s.indexKey(), limit)
	if err != nil {
		return nil, err
	}

	archives := make([]Archive, 0, len(ids))
	var stale []int64
	for _, id := range ids {
		fields, err := s.cache.HMGet(ctx, s.itemKey(id), fieldName, fieldCreatedAt)
		if err != nil {
			return nil, err
		}
		name, ok := fields[fieldName]
		if !ok {
			stale = append(stale, id)
			continue
		}

		a := Archive{ID: id, Name: name}
		if raw, ok := fields[fieldCreatedAt]; ok {
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				a.CreatedAt = &t
			}
		}
		archives = append(archives, a)
	}

	if len(stale) > 0 {
		if err := s.cache.ZRem(ctx, s.indexKey(), stale...); err != nil {
			s.logger.Warn("Failed to prune expired archive index entries", zap.Int("count", len(stale)), zap.Error(err))
		} else {
			s.logger.Debug("Pruned expired archive index entries", zap.Int("count", len(stale)))
		}
	}
	return archives, nil
}

func (s *RedisStore) Download(ctx context.Context, id int64) ([]byte, error) {
	content, ok, err := s.cache.HGetBytes(ctx, s.itemKey(id), fieldContent)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("archive %d not found", id)
	}
	return content, nil
}

func (s *RedisStore) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	content, items, err := Pack(req.Files, req.RootDir)
	if err != nil {
		return nil, err
	}

	id, err := s.cache.NextID(ctx, s.seqKey())
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		fieldName:      req.Name,
		fieldCreatedAt: s.now().UTC().Format(time.RFC3339Nano),
		fieldContent:   content,
	}
	if err := s.cache.PutHash(ctx, s.itemKey(id), fields, req.Retention); err != nil {
		return nil, err
	}
	if err := s.cache.ZAdd(ctx, s.indexKey(), id); err != nil {
		return nil, err
	}

	s.logger.Info("Archive stored in Redis", zap.Int64("archive_id", id), zap.String("name", req.Name), zap.Int("size", len(content)))
	return &UploadResult{ArchiveName: req.Name, Items: items, ID: id, Size: int64(len(content))}, nil
}

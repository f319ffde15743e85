package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const catalogKeyPrefix = "catalog"

// Catalog kinds used in cache keys.
const (
	CatalogStudents = "students"
	CatalogCourses  = "courses"
	CatalogPrograms = "programs"
	CatalogItems    = "items"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts catalog listings with Redis and records hit/miss metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// CatalogKey derives a stable key for a listing of kind filtered by filter.
func CatalogKey(kind string, filter interface{}) string {
	raw, err := json.Marshal(filter)
	if err != nil {
		raw = []byte(fmt.Sprintf("%+v", filter))
	}
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%s:%s:%s", catalogKeyPrefix, kind, hex.EncodeToString(sum[:8]))
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidateCatalog drops cached listings for the given kinds, or all of them when none are given.
// Failures are logged only; a stale listing expires with its TTL.
func (s *CacheService) InvalidateCatalog(ctx context.Context, kinds ...string) {
	if !s.Enabled() {
		return
	}
	patterns := []string{catalogKeyPrefix + ":*"}
	if len(kinds) > 0 {
		patterns = patterns[:0]
		for _, kind := range kinds {
			patterns = append(patterns, fmt.Sprintf("%s:%s:*", catalogKeyPrefix, kind))
		}
	}
	for _, pattern := range patterns {
		if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

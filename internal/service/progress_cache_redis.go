package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
)

// MetricsCache guarda agregados ya calculados. Es best-effort: ante cualquier falla
// el caller recalcula.
type MetricsCache interface {
	Get(ctx context.Context, subjectID, field string) (domain.AggregateMetrics, bool)
	Set(ctx context.Context, subjectID, field string, metrics domain.AggregateMetrics)
	Invalidate(ctx context.Context, subjectID string)
}

// CacheObserver cuenta hits/misses; metrics.Recorder lo implementa.
type CacheObserver interface {
	ObserveCache(result string)
}

type redisHashClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisMetricsCache usa un hash por sujeto: invalidar es un único DEL.
type redisMetricsCache struct {
	client   redisHashClient
	ttl      time.Duration
	prefix   string
	observer CacheObserver
	logger   *zap.Logger
}

func NewRedisMetricsCache(client *redis.Client, ttl time.Duration, observer CacheObserver, logger *zap.Logger) MetricsCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisMetricsCache{
		client:   client,
		ttl:      ttl,
		prefix:   "casenotes:metrics:",
		observer: observer,
		logger:   logger,
	}
}

func (c *redisMetricsCache) Get(ctx context.Context, subjectID, field string) (domain.AggregateMetrics, bool) {
	if c == nil || c.client == nil {
		return domain.AggregateMetrics{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := c.client.HGet(ctx, c.prefix+subjectID, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.observe("miss")
		} else {
			c.observe("error")
			c.logger.Debug("metrics cache get failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
		return domain.AggregateMetrics{}, false
	}

	var m domain.AggregateMetrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		c.observe("error")
		return domain.AggregateMetrics{}, false
	}
	c.observe("hit")
	return m, true
}

func (c *redisMetricsCache) Set(ctx context.Context, subjectID, field string, metrics domain.AggregateMetrics) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	key := c.prefix + subjectID
	if err := c.client.HSet(ctx, key, field, payload).Err(); err != nil {
		c.logger.Debug("metrics cache set failed", zap.String("subject_id", subjectID), zap.Error(err))
		return
	}
	_ = c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *redisMetricsCache) Invalidate(ctx context.Context, subjectID string) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = c.client.Del(ctx, c.prefix+subjectID).Err()
}

func (c *redisMetricsCache) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveCache(result)
	}
}

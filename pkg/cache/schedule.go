// Package cache keeps short-lived schedule snapshots for the read paths.
// Booking and cancellation never read from it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"explanation-booking/internal/data/entity"
	"explanation-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ScheduleCache interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Schedule, bool)
	Set(ctx context.Context, schedule *entity.Schedule)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// NewRedisClient connects to Redis. It returns nil when the server does not
// answer, and callers fall back to Noop.
func NewRedisClient(cfg utils.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, schedule cache disabled",
			zap.String("addr", cfg.Addr),
			zap.Error(err),
		)
		_ = client.Close()
		return nil
	}
	return client
}

type redisScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisScheduleCache(client *redis.Client, ttl time.Duration, log *zap.Logger) ScheduleCache {
	return &redisScheduleCache{
		client: client,
		ttl:    ttl,
		log:    log.With(zap.String("cache", "schedule")),
	}
}

func scheduleKey(id uuid.UUID) string {
	return "explanation:schedule:" + id.String()
}

func (c *redisScheduleCache) Get(ctx context.Context, id uuid.UUID) (*entity.Schedule, bool) {
	raw, err := c.client.Get(ctx, scheduleKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Cache read failed", zap.String("schedule_id", id.String()), zap.Error(err))
		}
		return nil, false
	}

	var schedule entity.Schedule
	if err := json.Unmarshal(raw, &schedule); err != nil {
		c.log.Warn("Cache entry corrupt", zap.String("schedule_id", id.String()), zap.Error(err))
		return nil, false
	}
	return &schedule, true
}

func (c *redisScheduleCache) Set(ctx context.Context, schedule *entity.Schedule) {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, scheduleKey(schedule.ID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", zap.String("schedule_id", schedule.ID.String()), zap.Error(err))
	}
}

func (c *redisScheduleCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, scheduleKey(id)).Err(); err != nil {
		c.log.Warn("Cache invalidate failed", zap.String("schedule_id", id.String()), zap.Error(err))
	}
}

// Noop never holds anything
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID) (*entity.Schedule, bool) { return nil, false }
func (Noop) Set(context.Context, *entity.Schedule)                   {}
func (Noop) Invalidate(context.Context, uuid.UUID)                   {}

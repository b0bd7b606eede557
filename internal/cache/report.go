package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carelink/pkg/types"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const reportKey = "carelink:inventory:report"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// ReportCache keeps the last computed inventory report in redis. Failures are
// logged and treated as a miss; the ledgers stay the source of truth.
type ReportCache struct {
	store  cmdable
	ttl    time.Duration
	logger logrus.FieldLogger
}

// New connects to the redis instance at url and verifies connectivity.
func New(ctx context.Context, url string, ttl time.Duration, logger logrus.FieldLogger) (*ReportCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &ReportCache{store: client, ttl: ttl, logger: logger}, nil
}

func (c *ReportCache) Report(ctx context.Context) (*types.Report, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}

	raw, err := c.store.Get(ctx, reportKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("failed to read cached report")
		}
		return nil, false
	}

	var report = new(types.Report)
	if err := json.Unmarshal([]byte(raw), report); err != nil {
		c.logger.WithError(err).Warn("discarding undecodable cached report")
		return nil, false
	}

	return report, true
}

func (c *ReportCache) StoreReport(ctx context.Context, report *types.Report) {
	if c == nil || c.store == nil || report == nil {
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		c.logger.WithError(err).Warn("failed to encode report for cache")
		return
	}

	if err := c.store.Set(ctx, reportKey, string(data), c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to cache report")
	}
}

func (c *ReportCache) InvalidateReport(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}

	if err := c.store.Del(ctx, reportKey).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to invalidate cached report")
	}
}

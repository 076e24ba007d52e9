package observability

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

const defaultScrapeInterval = 10 * time.Second

// every runs sample on each tick until ctx ends, then calls stop if set.
func every(ctx context.Context, interval time.Duration, sample func(context.Context), stop func()) {
	if interval <= 0 {
		interval = defaultScrapeInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		if stop != nil {
			defer stop()
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sample(ctx)
			}
		}
	}()
}

// StartDBCollector samples the connection pool behind db.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	every(ctx, interval, func(context.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("DB pool stats unavailable", "error", err)
			}
			return
		}
		m.recordPool(sqlDB.Stats())
	}, nil)
}

func (m *Metrics) recordPool(stats sql.DBStats) {
	for stat, v := range map[string]float64{
		"open_connections":      float64(stats.OpenConnections),
		"in_use":                float64(stats.InUse),
		"idle":                  float64(stats.Idle),
		"wait_count":            float64(stats.WaitCount),
		"wait_duration_seconds": stats.WaitDuration.Seconds(),
		"max_open_connections":  float64(stats.MaxOpenConnections),
	} {
		m.dbPool.Set(v, stat)
	}
}

// StartRedisCollector pings the realtime Redis with its own client so a
// stalled pub/sub connection does not mask an unreachable server.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, opts *redis.Options, interval time.Duration) {
	if m == nil || opts == nil || strings.TrimSpace(opts.Addr) == "" {
		return
	}
	rdb := redis.NewClient(opts)
	every(ctx, interval, func(ctx context.Context) {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil && ctx.Err() == nil {
				log.Warn("Redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	}, func() { _ = rdb.Close() })
}

// StartSSECollector mirrors a running drop count, such as SSEHub.Dropped.
func (m *Metrics) StartSSECollector(ctx context.Context, dropped func() uint64, interval time.Duration) {
	if m == nil || dropped == nil {
		return
	}
	every(ctx, interval, func(context.Context) {
		m.sseDropped.Set(float64(dropped()))
	}, nil)
}

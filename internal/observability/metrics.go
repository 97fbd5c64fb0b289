package observability

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

// Metrics holds the process metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	productCache *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// New builds an unregistered Metrics; tests use it directly.
func New() *Metrics {
	return &Metrics{
		aggregateOps: NewCounterVec("cb_aggregate_operations_total", "Aggregate store operations by name/status.", []string{"op", "status"}),
		aggregateLatency: NewHistogramVec(
			"cb_aggregate_operation_duration_seconds",
			"Aggregate store operation latency in seconds by name/status.",
			[]string{"op", "status"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		),
		aggregateConflicts: NewCounterVec("cb_aggregate_conflicts_total", "Aggregate writes rejected by a concurrent writer.", []string{"op"}),
		aggregateRetries:   NewCounterVec("cb_aggregate_retryable_total", "Aggregate operations that failed with a retryable error.", []string{"op"}),
		productCache:       NewCounterVec("cb_product_cache_lookups_total", "Product cache lookups by result.", []string{"result"}),
		dbStats:            NewGaugeVec("cb_db_pool", "Database connection pool stats.", []string{"stat"}),
		redisUp:            NewGauge("cb_redis_up", "Redis reachability (1 = up)."),
		redisPing:          NewGauge("cb_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

// Init returns the process-wide Metrics, or nil when disabled.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.aggregateOps,
		m.aggregateLatency,
		m.aggregateConflicts,
		m.aggregateRetries,
		m.productCache,
		m.dbStats,
		m.redisUp,
		m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op = strings.TrimSpace(op)
	status = strings.TrimSpace(status)
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(strings.TrimSpace(op))
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(strings.TrimSpace(op))
}

// IncProductCache records a cache lookup; result is hit, miss or error.
func (m *Metrics) IncProductCache(result string) {
	if m == nil {
		return
	}
	m.productCache.Inc(strings.TrimSpace(result))
}

// ProductCacheLookups reports the count recorded for one result label.
func (m *Metrics) ProductCacheLookups(result string) float64 {
	if m == nil {
		return 0
	}
	return m.productCache.Value(strings.TrimSpace(result))
}

func (m *Metrics) CollectDBStats(db *gorm.DB) error {
	if m == nil || db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	stats := sqlDB.Stats()
	m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
	m.dbStats.Set(float64(stats.InUse), "in_use")
	m.dbStats.Set(float64(stats.Idle), "idle")
	m.dbStats.Set(float64(stats.WaitCount), "wait_count")
	m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
	return nil
}

func (m *Metrics) CollectRedis(ctx context.Context, rdb *redis.Client) error {
	if m == nil || rdb == nil {
		return nil
	}
	start := time.Now()
	if err := rdb.Ping(ctx).Err(); err != nil {
		m.redisUp.Set(0)
		return err
	}
	m.redisUp.Set(1)
	m.redisPing.Set(time.Since(start).Seconds())
	return nil
}

// StartCollectors samples pool and Redis health every interval until ctx ends.
func (m *Metrics) StartCollectors(ctx context.Context, log *logger.Logger, db *gorm.DB, rdb *redis.Client, interval time.Duration) {
	if m == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.CollectDBStats(db); err != nil && log != nil {
					log.Warn("metrics: db stats unavailable", "error", err)
				}
				if err := m.CollectRedis(ctx, rdb); err != nil && log != nil {
					log.Warn("metrics: redis ping failed", "error", err)
				}
			}
		}
	}()
}

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_api_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by layer and outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_api_cache_lookups_total",
		Help: "Cache lookups by layer (local, redis) and result (hit, miss)",
	}, []string{"layer", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "social_api_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PostTransitions counts post lifecycle transitions.
	PostTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_api_post_transitions_total",
		Help: "Post status transitions by source and target status",
	}, []string{"from", "to"})

	// LikeToggles counts like toggles by resulting action.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_api_like_toggles_total",
		Help: "Like toggles by action (liked, unliked)",
	}, []string{"action"})

	// CommentsCreated counts new comments by kind.
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_api_comments_created_total",
		Help: "Comments created by kind (comment, reply)",
	}, []string{"kind"})
)

const metricsStartKey = "metrics:start"

// DatabaseMetrics records query latency for every gorm operation.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// RegisterCallbacks hooks latency tracking into the gorm callback chain.
func (m *DatabaseMetrics) RegisterCallbacks() error {
	before := func(db *gorm.DB) {
		db.InstanceSet(metricsStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			v, ok := db.InstanceGet(metricsStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := db.Statement.Table
			if table == "" {
				table = "raw"
			}
			m.ObserveQuery(operation, table, start)
		}
	}

	cb := m.db.Callback()
	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", after("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", after("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", after("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw"))
}

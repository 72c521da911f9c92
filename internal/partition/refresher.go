package partition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/cluster"
	"github.com/devrev/pairdb/driver/internal/errors"
	"github.com/devrev/pairdb/driver/internal/metrics"
	"github.com/devrev/pairdb/driver/internal/util/workerpool"
)

// Refresher owns the reload schedule of one routing cache. At any moment a
// refresher is idle, waiting on a single pending timer, or loading; two
// recurring refresh cycles never coexist. Reload execution happens on the
// shared pool, so triggering never blocks the caller.
type Refresher struct {
	cache    *Cache
	pool     *workerpool.Pool
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	loading bool
	closed  bool
	querier cluster.MetadataQuerier
	schema  cluster.SchemaView
}

// NewRefresher creates a refresher for the cache. The pool is shared across
// cache instances and processes reloads one at a time. An interval of zero
// or less disables periodic refresh; only triggered reloads occur then.
func NewRefresher(cache *Cache, pool *workerpool.Pool, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Refresher {
	return &Refresher{
		cache:    cache,
		pool:     pool,
		interval: interval,
		metrics:  m,
		logger:   logger,
	}
}

// Bind attaches the query and schema collaborators and arms the first
// scheduled reload. Called when the cache registers with its cluster handle.
func (r *Refresher) Bind(querier cluster.MetadataQuerier, schema cluster.SchemaView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.querier = querier
	r.schema = schema
	r.scheduleNextLocked()
}

// Trigger requests a reload soon. Triggers arriving while a reload is in
// flight coalesce into it: the running reload re-arms the next cycle on
// completion, so no extra work is scheduled.
func (r *Refresher) Trigger(reason string) {
	if r.metrics != nil {
		r.metrics.RecordTrigger(reason)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.querier == nil || r.loading {
		return
	}
	if r.timer != nil {
		if !r.timer.Stop() {
			// The timer already fired; its reload is on its way and will
			// re-arm the next cycle itself.
			return
		}
		r.timer = nil
	}
	r.startLoadLocked(reason)
}

// Close cancels any pending reload and makes the refresher terminal. An
// in-flight reload may still complete, but its result is discarded by the
// cache's own liveness check.
func (r *Refresher) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.querier = nil
	r.schema = nil
}

func (r *Refresher) onTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.loading {
		return
	}
	r.timer = nil
	r.startLoadLocked("periodic")
}

// startLoadLocked submits a reload task. Callers hold r.mu.
func (r *Refresher) startLoadLocked(reason string) {
	r.loading = true
	task := workerpool.Task{
		ID: fmt.Sprintf("reload-%d", time.Now().UnixNano()),
		Fn: r.reload,
	}
	if !r.pool.TrySubmit(task) {
		r.logger.Warn("Reload queue full, dropping reload",
			zap.String("reason", reason))
		r.loading = false
		r.scheduleNextLocked()
	}
}

// scheduleNextLocked arms the next periodic reload. Callers hold r.mu.
func (r *Refresher) scheduleNextLocked() {
	if r.closed || r.interval <= 0 {
		return
	}
	if r.timer != nil {
		if !r.timer.Stop() {
			return
		}
	}
	r.timer = time.AfterFunc(r.interval, r.onTimer)
}

// reload runs one refresh cycle on a pool worker: query the catalog, build
// a fresh snapshot, publish it, and re-arm the next cycle. A failed query
// leaves the previous snapshot untouched but still re-arms.
func (r *Refresher) reload(ctx context.Context) error {
	r.mu.Lock()
	querier := r.querier
	schema := r.schema
	r.mu.Unlock()

	var reloadErr error
	if querier == nil {
		reloadErr = errors.CacheClosed()
	} else {
		start := time.Now()
		rows, err := querier.QueryPartitions(ctx)
		if err != nil {
			reloadErr = errors.QueryFailed("partition catalog query failed", err)
			if r.metrics != nil {
				r.metrics.RecordReload("failure", time.Since(start).Seconds())
			}
		} else {
			snapshot := buildSnapshot(rows, schema, r.metrics, r.logger)
			if !r.cache.publish(snapshot) {
				r.logger.Debug("Discarding reload result for closed cache")
			}
			if r.metrics != nil {
				r.metrics.RecordReload("success", time.Since(start).Seconds())
			}
		}
	}

	r.mu.Lock()
	r.loading = false
	r.scheduleNextLocked()
	r.mu.Unlock()

	return reloadErr
}

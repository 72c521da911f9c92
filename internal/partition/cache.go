package partition

import (
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/metrics"
	"github.com/devrev/pairdb/driver/internal/model"
)

// Cache holds the published routing snapshot for one cluster. Lookups are
// lock-free reads of an atomically swapped immutable snapshot; they never
// block on reloads and never fail. Metrics may be nil.
type Cache struct {
	snapshot  atomic.Pointer[Snapshot]
	loadCount atomic.Uint64

	mu     sync.Mutex
	closed bool

	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCache creates an empty routing cache. The first published snapshot
// makes it usable; until then every lookup is undeterminable.
func NewCache(m *metrics.Metrics, logger *zap.Logger) *Cache {
	return &Cache{
		metrics: m,
		logger:  logger,
	}
}

// GetHostsForKey returns the replicas owning the partition key in the given
// table, leader first. An empty result means the routing is undeterminable
// (unknown table, no snapshot yet, or replicas missing from the topology
// view) and the caller should fall back to default routing.
func (c *Cache) GetHostsForKey(ref model.TableRef, key int) []*model.Host {
	snapshot := c.snapshot.Load()
	if snapshot == nil {
		c.recordLookup("no_snapshot")
		return nil
	}
	index, ok := (*snapshot)[ref]
	if !ok {
		c.recordLookup("unknown_table")
		return nil
	}
	hosts := index.Lookup(key)
	if len(hosts) == 0 {
		c.recordLookup("undeterminable")
		return hosts
	}
	c.recordLookup("hit")
	return hosts
}

// HasSnapshot reports whether any snapshot has been published yet.
func (c *Cache) HasSnapshot() bool {
	return c.snapshot.Load() != nil
}

// HasTable reports whether the current snapshot contains the table.
func (c *Cache) HasTable(ref model.TableRef) bool {
	snapshot := c.snapshot.Load()
	if snapshot == nil {
		return false
	}
	_, ok := (*snapshot)[ref]
	return ok
}

// LoadCount returns the number of snapshots published so far.
func (c *Cache) LoadCount() uint64 {
	return c.loadCount.Load()
}

// publish atomically replaces the current snapshot. It reports false when
// the cache has been closed, in which case the snapshot is discarded.
func (c *Cache) publish(snapshot Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	c.snapshot.Store(&snapshot)
	c.loadCount.Add(1)

	if c.metrics != nil {
		c.metrics.UpdateSnapshotStats(len(snapshot), snapshot.partitions())
	}
	c.logger.Debug("Published routing snapshot",
		zap.Int("tables", len(snapshot)),
		zap.Int("partitions", snapshot.partitions()),
		zap.Uint64("load_count", c.loadCount.Load()))
	return true
}

// Close makes the cache terminal: late reload results are discarded.
// Lookups keep serving the last published snapshot.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Cache) recordLookup(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordLookup(outcome)
	}
}

// TableRoutes describes the published ranges of one table, for diagnostics.
type TableRoutes struct {
	Keyspace string       `json:"keyspace"`
	Table    string       `json:"table"`
	Ranges   []RangeRoute `json:"ranges"`
}

// RangeRoute is one partition range with its replica addresses, leader first.
type RangeRoute struct {
	StartKey int      `json:"start_key"`
	Replicas []string `json:"replicas"`
}

// RouteTable dumps the current snapshot for diagnostics, sorted by table.
func (c *Cache) RouteTable() []TableRoutes {
	snapshot := c.snapshot.Load()
	if snapshot == nil {
		return nil
	}

	routes := make([]TableRoutes, 0, len(*snapshot))
	for ref, index := range *snapshot {
		tr := TableRoutes{
			Keyspace: ref.Keyspace,
			Table:    ref.Table,
			Ranges:   make([]RangeRoute, 0, index.Len()),
		}
		for _, entry := range index.Entries() {
			rr := RangeRoute{StartKey: entry.StartKey, Replicas: make([]string, 0, len(entry.Hosts))}
			for _, host := range entry.Hosts {
				rr.Replicas = append(rr.Replicas, host.Address)
			}
			tr.Ranges = append(tr.Ranges, rr)
		}
		routes = append(routes, tr)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Keyspace != routes[j].Keyspace {
			return routes[i].Keyspace < routes[j].Keyspace
		}
		return routes[i].Table < routes[j].Table
	})
	return routes
}

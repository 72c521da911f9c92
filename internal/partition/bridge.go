package partition

import (
	"sync"

	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/cluster"
	"github.com/devrev/pairdb/driver/internal/model"
)

// Bridge translates cluster events into reload triggers. It tracks host and
// table membership locally so that a notification that does not actually
// change membership (a duplicate "up" for an already-up host, say) produces
// no trigger. Table alters and keyspace-level changes never reach the
// bridge; event sources route those to a no-op sink.
type Bridge struct {
	cache     *Cache
	refresher *Refresher
	logger    *zap.Logger

	mu       sync.Mutex
	allHosts map[string]struct{}
	upHosts  map[string]struct{}
}

// NewBridge creates a bridge feeding the refresher.
func NewBridge(cache *Cache, refresher *Refresher, logger *zap.Logger) *Bridge {
	return &Bridge{
		cache:     cache,
		refresher: refresher,
		logger:    logger,
		allHosts:  make(map[string]struct{}),
		upHosts:   make(map[string]struct{}),
	}
}

// Register binds the cluster handle's collaborators and arms the first
// scheduled reload.
func (b *Bridge) Register(h cluster.Handle) {
	b.refresher.Bind(h.Querier(), h.Schema())
	b.logger.Debug("Routing cache registered with cluster handle")
}

// Unregister cancels pending reloads and tears the cache down. Terminal.
func (b *Bridge) Unregister() {
	b.refresher.Close()
	b.cache.Close()
	b.logger.Debug("Routing cache unregistered from cluster handle")
}

// HostAdded implements cluster.TopologyListener.
func (b *Bridge) HostAdded(host *model.Host) {
	if b.track(b.allHosts, host, true) {
		b.refresher.Trigger("host_added")
	}
}

// HostUp implements cluster.TopologyListener.
func (b *Bridge) HostUp(host *model.Host) {
	if b.track(b.upHosts, host, true) {
		b.refresher.Trigger("host_up")
	}
}

// HostDown implements cluster.TopologyListener.
func (b *Bridge) HostDown(host *model.Host) {
	if b.track(b.upHosts, host, false) {
		b.refresher.Trigger("host_down")
	}
}

// HostRemoved implements cluster.TopologyListener.
func (b *Bridge) HostRemoved(host *model.Host) {
	if b.track(b.allHosts, host, false) {
		b.refresher.Trigger("host_removed")
	}
}

// TableAdded implements cluster.SchemaListener. A table the cache already
// routes is a stale notification and produces no trigger.
func (b *Bridge) TableAdded(ref model.TableRef) {
	if !b.cache.HasSnapshot() || !b.cache.HasTable(ref) {
		b.refresher.Trigger("table_added")
	}
}

// TableRemoved implements cluster.SchemaListener. Only tables the cache
// currently routes warrant a reload.
func (b *Bridge) TableRemoved(ref model.TableRef) {
	if !b.cache.HasSnapshot() || b.cache.HasTable(ref) {
		b.refresher.Trigger("table_removed")
	}
}

// track adds or removes the host from the membership set and reports
// whether membership actually changed.
func (b *Bridge) track(set map[string]struct{}, host *model.Host, add bool) bool {
	key := host.ID
	if key == "" {
		key = host.Address
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, present := set[key]
	if add {
		if present {
			return false
		}
		set[key] = struct{}{}
		return true
	}
	if !present {
		return false
	}
	delete(set, key)
	return true
}

var (
	_ cluster.TopologyListener = (*Bridge)(nil)
	_ cluster.SchemaListener   = (*Bridge)(nil)
)

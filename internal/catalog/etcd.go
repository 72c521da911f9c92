package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/cluster"
	"github.com/devrev/pairdb/driver/internal/model"
)

// Catalog is the etcd-backed cluster catalog. The coordinator publishes
// schema, node, and partition metadata under a common prefix; the catalog
// serves point-in-time reads of that metadata to the routing cache and
// translates watch events into topology/schema notifications.
//
// Key layout under the prefix:
//
//	<prefix>/nodes/<node-id>                  -> node address
//	<prefix>/tables/<keyspace>/<table>        -> "" (existence marks the table)
//	<prefix>/partitions/<keyspace>/<table>/<n> -> JSON model.PartitionRow
//
// The local schema/topology view is best-effort: it can be briefly stale
// after a metadata change; the next reload reconciles it.
type Catalog struct {
	client *clientv3.Client
	prefix string
	logger *zap.Logger

	mu     sync.RWMutex
	tables map[string]map[string]struct{}
	nodes  map[string]string
}

// Config holds catalog configuration
type Config struct {
	Endpoints   []string
	Prefix      string
	DialTimeout time.Duration
}

// New dials etcd and loads the initial schema/topology view.
func New(ctx context.Context, cfg *Config, logger *zap.Logger) (*Catalog, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	c := &Catalog{
		client: client,
		prefix: strings.TrimSuffix(cfg.Prefix, "/"),
		logger: logger,
		tables: make(map[string]map[string]struct{}),
		nodes:  make(map[string]string),
	}
	if err := c.loadAll(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("load initial cluster catalog: %w", err)
	}
	return c, nil
}

// Close closes the etcd client.
func (c *Catalog) Close() error {
	return c.client.Close()
}

// Querier implements cluster.Handle.
func (c *Catalog) Querier() cluster.MetadataQuerier { return c }

// Schema implements cluster.Handle.
func (c *Catalog) Schema() cluster.SchemaView { return c }

// QueryPartitions implements cluster.MetadataQuerier: one full read of the
// partition metadata, the backing store's equivalent of PartitionsQuery.
func (c *Catalog) QueryPartitions(ctx context.Context) ([]model.PartitionRow, error) {
	resp, err := c.client.Get(ctx, c.prefix+"/partitions/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("partition catalog read failed: %w", err)
	}

	rows := make([]model.PartitionRow, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var row model.PartitionRow
		if err := json.Unmarshal(kv.Value, &row); err != nil {
			c.logger.Warn("Skipping malformed partition catalog entry",
				zap.String("key", string(kv.Key)),
				zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Keyspace implements cluster.SchemaView.
func (c *Catalog) Keyspace(name string) (*model.KeyspaceMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names, ok := c.tables[name]
	if !ok {
		return nil, false
	}
	ks := &model.KeyspaceMetadata{
		Name:   name,
		Tables: make(map[string]*model.TableMetadata, len(names)),
	}
	for table := range names {
		ks.Tables[table] = &model.TableMetadata{Keyspace: name, Name: table}
	}
	return ks, true
}

// Hosts implements cluster.SchemaView.
func (c *Catalog) Hosts() []*model.Host {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hosts := make([]*model.Host, 0, len(c.nodes))
	for id, addr := range c.nodes {
		hosts = append(hosts, &model.Host{ID: id, Address: addr})
	}
	return hosts
}

// Watch follows catalog changes until the context is canceled, forwarding
// node and table lifecycle changes to the listeners. Partition entries are
// not forwarded: range movement is picked up by the next reload.
func (c *Catalog) Watch(ctx context.Context, topo cluster.TopologyListener, schema cluster.SchemaListener) {
	for {
		watchChan := c.client.Watch(ctx, c.prefix+"/", clientv3.WithPrefix())
		for resp := range watchChan {
			if resp.Err() != nil {
				c.logger.Warn("Catalog watch error", zap.Error(resp.Err()))
				continue
			}
			for _, ev := range resp.Events {
				c.applyEvent(ev, topo, schema)
			}
		}

		if ctx.Err() != nil {
			return
		}

		// Transient failure (etcd leader election, compaction, network
		// blip). Reseed the local view and re-establish the watch.
		c.logger.Warn("Catalog watch stream closed, reconnecting")
		time.Sleep(time.Second)
		if err := c.loadAll(ctx); err != nil {
			c.logger.Warn("Catalog watch reconnect: reload failed", zap.Error(err))
		}
	}
}

func (c *Catalog) applyEvent(ev *clientv3.Event, topo cluster.TopologyListener, schema cluster.SchemaListener) {
	key := string(ev.Kv.Key)

	if id, ok := c.parseNodeKey(key); ok {
		switch ev.Type {
		case clientv3.EventTypePut:
			addr := string(ev.Kv.Value)
			c.mu.Lock()
			c.nodes[id] = addr
			c.mu.Unlock()
			host := &model.Host{ID: id, Address: addr}
			topo.HostAdded(host)
			topo.HostUp(host)
		case clientv3.EventTypeDelete:
			c.mu.Lock()
			addr := c.nodes[id]
			delete(c.nodes, id)
			c.mu.Unlock()
			host := &model.Host{ID: id, Address: addr}
			topo.HostDown(host)
			topo.HostRemoved(host)
		}
		return
	}

	if ref, ok := c.parseTableKey(key); ok {
		switch ev.Type {
		case clientv3.EventTypePut:
			c.mu.Lock()
			if c.tables[ref.Keyspace] == nil {
				c.tables[ref.Keyspace] = make(map[string]struct{})
			}
			c.tables[ref.Keyspace][ref.Table] = struct{}{}
			c.mu.Unlock()
			schema.TableAdded(ref)
		case clientv3.EventTypeDelete:
			c.mu.Lock()
			delete(c.tables[ref.Keyspace], ref.Table)
			c.mu.Unlock()
			schema.TableRemoved(ref)
		}
	}
}

// loadAll reseeds the local schema/topology view from a full read.
func (c *Catalog) loadAll(ctx context.Context) error {
	resp, err := c.client.Get(ctx, c.prefix+"/nodes/", clientv3.WithPrefix())
	if err != nil {
		return err
	}
	nodes := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		if id, ok := c.parseNodeKey(string(kv.Key)); ok {
			nodes[id] = string(kv.Value)
		}
	}

	resp, err = c.client.Get(ctx, c.prefix+"/tables/", clientv3.WithPrefix())
	if err != nil {
		return err
	}
	tables := make(map[string]map[string]struct{})
	for _, kv := range resp.Kvs {
		if ref, ok := c.parseTableKey(string(kv.Key)); ok {
			if tables[ref.Keyspace] == nil {
				tables[ref.Keyspace] = make(map[string]struct{})
			}
			tables[ref.Keyspace][ref.Table] = struct{}{}
		}
	}

	c.mu.Lock()
	c.nodes = nodes
	c.tables = tables
	c.mu.Unlock()

	c.logger.Info("Loaded cluster catalog",
		zap.Int("nodes", len(nodes)),
		zap.Int("keyspaces", len(tables)))
	return nil
}

// parseNodeKey converts "<prefix>/nodes/<id>" -> id
func (c *Catalog) parseNodeKey(key string) (string, bool) {
	nodePrefix := c.prefix + "/nodes/"
	if !strings.HasPrefix(key, nodePrefix) {
		return "", false
	}
	id := strings.TrimPrefix(key, nodePrefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// parseTableKey converts "<prefix>/tables/<keyspace>/<table>" -> TableRef
func (c *Catalog) parseTableKey(key string) (model.TableRef, bool) {
	tablePrefix := c.prefix + "/tables/"
	if !strings.HasPrefix(key, tablePrefix) {
		return model.TableRef{}, false
	}
	remainder := strings.TrimPrefix(key, tablePrefix)
	parts := strings.Split(remainder, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return model.TableRef{}, false
	}
	return model.TableRef{Keyspace: parts[0], Table: parts[1]}, true
}

var _ cluster.Handle = (*Catalog)(nil)

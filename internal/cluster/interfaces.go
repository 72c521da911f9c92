package cluster

import (
	"context"

	"github.com/devrev/pairdb/driver/internal/model"
)

// PartitionsQuery is the catalog read that backs every routing cache reload.
const PartitionsQuery = "select keyspace_name, table_name, start_key, replica_addresses " +
	"from system_schema.partitions;"

// MetadataQuerier executes the partition catalog query. Implementations are
// expected to enforce their own timeouts; the routing cache treats query
// failure and query timeout identically.
type MetadataQuerier interface {
	QueryPartitions(ctx context.Context) ([]model.PartitionRow, error)
}

// SchemaView resolves names from the catalog against the driver's current
// schema and topology metadata. Both lookups are point-in-time reads and may
// go stale between refreshes.
type SchemaView interface {
	// Keyspace returns the keyspace metadata, or false if the keyspace is
	// unknown to the current schema view.
	Keyspace(name string) (*model.KeyspaceMetadata, bool)

	// Hosts returns all nodes currently known to the topology view.
	Hosts() []*model.Host
}

// Handle is the owning cluster handle a routing cache registers with. It
// supplies the collaborators the cache needs for the duration of the
// registration.
type Handle interface {
	Querier() MetadataQuerier
	Schema() SchemaView
}

package partition

import (
	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/cluster"
	"github.com/devrev/pairdb/driver/internal/errors"
	"github.com/devrev/pairdb/driver/internal/metrics"
	"github.com/devrev/pairdb/driver/internal/model"
)

// Snapshot maps each table to its partition range index. A snapshot is
// built off to the side from a fresh set of catalog rows and published
// wholesale; readers never observe a partially updated mapping.
type Snapshot map[model.TableRef]*Index

// partitions returns the total number of ranges across all tables.
func (s Snapshot) partitions() int {
	n := 0
	for _, ix := range s {
		n += ix.Len()
	}
	return n
}

// buildSnapshot builds a brand-new snapshot from catalog rows and the
// current schema/topology view. Rows whose keyspace or table cannot be
// resolved against schema metadata are dropped, as are rows with malformed
// start keys; neither aborts the load.
func buildSnapshot(rows []model.PartitionRow, schema cluster.SchemaView, m *metrics.Metrics, logger *zap.Logger) Snapshot {
	hostsByAddr := make(map[string]*model.Host)
	for _, host := range schema.Hosts() {
		hostsByAddr[host.Address] = host
	}

	ranges := make(map[model.TableRef]map[int][]*model.Host)
	for _, row := range rows {
		ks, ok := schema.Keyspace(row.Keyspace)
		if !ok {
			logger.Debug("Skipping partition row",
				zap.Error(errors.KeyspaceNotFound(row.Keyspace)))
			if m != nil {
				m.RecordRowSkipped("keyspace_not_found")
			}
			continue
		}
		table, ok := ks.Table(row.Table)
		if !ok {
			logger.Debug("Skipping partition row",
				zap.Error(errors.TableNotFound(row.Keyspace, row.Table)))
			if m != nil {
				m.RecordRowSkipped("table_not_found")
			}
			continue
		}

		startKey, err := DecodeStartKey(row.StartKey)
		if err != nil {
			logger.Warn("Skipping partition row with malformed start key",
				zap.String("keyspace", row.Keyspace),
				zap.String("table", row.Table),
				zap.Error(err))
			if m != nil {
				m.RecordRowSkipped("decode_failed")
			}
			continue
		}

		ref := table.Ref()
		if ranges[ref] == nil {
			ranges[ref] = make(map[int][]*model.Host)
		}
		ranges[ref][startKey] = ResolveReplicas(row.Replicas, hostsByAddr, row.Keyspace, row.Table, logger)
	}

	snapshot := make(Snapshot, len(ranges))
	for ref, tableRanges := range ranges {
		snapshot[ref] = newIndex(tableRanges)
	}
	return snapshot
}

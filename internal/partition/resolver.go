package partition

import (
	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/errors"
	"github.com/devrev/pairdb/driver/internal/model"
)

// systemKeyspaces are hosted on master nodes, so their partitions are
// expected to have no matching data-node replicas in the topology view.
var systemKeyspaces = map[string]struct{}{
	"system":             {},
	"system_auth":        {},
	"system_distributed": {},
	"system_schema":      {},
	"system_traces":      {},
}

func isSystemKeyspace(name string) bool {
	_, ok := systemKeyspaces[name]
	return ok
}

// ResolveReplicas maps the address-to-role replica set of one partition
// range onto the known hosts and orders it leader first, followers after.
// Addresses unknown to the topology view are skipped; unknown roles are
// ignored. If more than one replica claims the leader role, the first one
// wins and the rest are dropped.
func ResolveReplicas(replicaRoles map[string]string, hostsByAddr map[string]*model.Host, keyspace, table string, logger *zap.Logger) []*model.Host {
	hosts := make([]*model.Host, 0, len(replicaRoles))
	haveLeader := false

	for addr, role := range replicaRoles {
		host, ok := hostsByAddr[addr]
		if !ok {
			if !isSystemKeyspace(keyspace) {
				logger.Debug("Skipping replica entry",
					zap.Error(errors.HostNotFound(addr)),
					zap.String("keyspace", keyspace),
					zap.String("table", table))
			}
			continue
		}

		switch role {
		case model.RoleLeader:
			if haveLeader {
				logger.Warn("Multiple leaders reported for partition range, keeping the first",
					zap.String("address", addr),
					zap.String("keyspace", keyspace),
					zap.String("table", table))
				continue
			}
			hosts = append([]*model.Host{host}, hosts...)
			haveLeader = true
		case model.RoleFollower:
			hosts = append(hosts, host)
		}
	}

	return hosts
}

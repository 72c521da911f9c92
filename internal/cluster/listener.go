package cluster

import "github.com/devrev/pairdb/driver/internal/model"

// TopologyListener receives node membership and liveness changes from an
// event source (gossip, server push, metadata watch).
type TopologyListener interface {
	HostAdded(host *model.Host)
	HostUp(host *model.Host)
	HostDown(host *model.Host)
	HostRemoved(host *model.Host)
}

// SchemaListener receives table lifecycle changes. Event kinds that do not
// affect partition routing (column alters, keyspace/type/function changes)
// are deliberately absent from this contract; sources route them to a no-op
// sink instead.
type SchemaListener interface {
	TableAdded(ref model.TableRef)
	TableRemoved(ref model.TableRef)
}

// NopTopologyListener discards all topology events.
type NopTopologyListener struct{}

func (NopTopologyListener) HostAdded(*model.Host)   {}
func (NopTopologyListener) HostUp(*model.Host)      {}
func (NopTopologyListener) HostDown(*model.Host)    {}
func (NopTopologyListener) HostRemoved(*model.Host) {}

// NopSchemaListener discards all schema events.
type NopSchemaListener struct{}

func (NopSchemaListener) TableAdded(model.TableRef)   {}
func (NopSchemaListener) TableRemoved(model.TableRef) {}

var (
	_ TopologyListener = NopTopologyListener{}
	_ SchemaListener   = NopSchemaListener{}
)

package model

// Replica roles reported by the partition catalog.
const (
	RoleLeader   = "LEADER"
	RoleFollower = "FOLLOWER"
)

// PartitionRow is one row of the partition catalog: the start key of a
// partition range of a table, and the address-to-role map of its replicas.
type PartitionRow struct {
	Keyspace string            `json:"keyspace"`
	Table    string            `json:"table"`
	StartKey []byte            `json:"start_key"`
	Replicas map[string]string `json:"replicas"`
}

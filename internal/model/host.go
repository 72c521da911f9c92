package model

// Host represents a cluster node as seen by the driver's topology view.
// The routing cache only needs a stable identity and the address used to
// match replica entries from the partition catalog.
type Host struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

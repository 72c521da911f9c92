package model

// TableRef identifies a table by keyspace and table name. It is stable
// across schema metadata refreshes and is used as the routing cache key.
type TableRef struct {
	Keyspace string `json:"keyspace"`
	Table    string `json:"table"`
}

// String returns the dotted form "keyspace.table".
func (r TableRef) String() string {
	return r.Keyspace + "." + r.Table
}

// KeyspaceMetadata is the driver's view of a keyspace and its tables.
type KeyspaceMetadata struct {
	Name   string
	Tables map[string]*TableMetadata
}

// Table looks up a table by name within the keyspace.
func (k *KeyspaceMetadata) Table(name string) (*TableMetadata, bool) {
	t, ok := k.Tables[name]
	return t, ok
}

// TableMetadata is the driver's view of a single table.
type TableMetadata struct {
	Keyspace string
	Name     string
}

// Ref returns the cache key for this table.
func (t *TableMetadata) Ref() TableRef {
	return TableRef{Keyspace: t.Keyspace, Table: t.Name}
}

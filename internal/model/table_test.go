package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRefString(t *testing.T) {
	ref := TableRef{Keyspace: "ks", Table: "users"}
	assert.Equal(t, "ks.users", ref.String())
}

func TestKeyspaceTableLookup(t *testing.T) {
	ks := &KeyspaceMetadata{
		Name: "ks",
		Tables: map[string]*TableMetadata{
			"users": {Keyspace: "ks", Name: "users"},
		},
	}

	table, ok := ks.Table("users")
	require.True(t, ok)
	assert.Equal(t, TableRef{Keyspace: "ks", Table: "users"}, table.Ref())

	_, ok = ks.Table("absent")
	assert.False(t, ok)
}

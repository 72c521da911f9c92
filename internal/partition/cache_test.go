package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/model"
)

func TestCacheLookupBeforeFirstLoad(t *testing.T) {
	cache := NewCache(nil, zap.NewNop())

	assert.False(t, cache.HasSnapshot())
	assert.Nil(t, cache.GetHostsForKey(model.TableRef{Keyspace: "ks", Table: "t"}, 100))
	assert.Zero(t, cache.LoadCount())
}

func TestCacheRoutesFromSnapshot(t *testing.T) {
	hostA := &model.Host{ID: "a", Address: "10.0.0.1:9042"}
	hostB := &model.Host{ID: "b", Address: "10.0.0.2:9042"}
	hostC := &model.Host{ID: "c", Address: "10.0.0.3:9042"}
	ref := model.TableRef{Keyspace: "ks", Table: "t"}
	schema := newFakeSchema([]*model.Host{hostA, hostB, hostC}, ref)

	rows := []model.PartitionRow{
		{Keyspace: "ks", Table: "t", StartKey: nil,
			Replicas: map[string]string{hostA.Address: model.RoleLeader}},
		{Keyspace: "ks", Table: "t", StartKey: []byte{0x00, 0x64},
			Replicas: map[string]string{
				hostB.Address: model.RoleLeader,
				hostC.Address: model.RoleFollower,
			}},
	}

	cache := NewCache(nil, zap.NewNop())
	require.True(t, cache.publish(buildSnapshot(rows, schema, nil, zap.NewNop())))

	assert.True(t, cache.HasSnapshot())
	assert.True(t, cache.HasTable(ref))
	assert.False(t, cache.HasTable(model.TableRef{Keyspace: "ks", Table: "other"}))

	assert.Equal(t, []*model.Host{hostA}, cache.GetHostsForKey(ref, 0))
	assert.Equal(t, []*model.Host{hostA}, cache.GetHostsForKey(ref, 99))

	got := cache.GetHostsForKey(ref, 200)
	require.Len(t, got, 2)
	assert.Equal(t, hostB, got[0], "leader routes first")
	assert.Equal(t, hostC, got[1])

	assert.Empty(t, cache.GetHostsForKey(model.TableRef{Keyspace: "ks", Table: "other"}, 200))
}

func TestBuildSnapshotDropsUnresolvableRows(t *testing.T) {
	host := &model.Host{ID: "a", Address: "10.0.0.1:9042"}
	ref := model.TableRef{Keyspace: "ks", Table: "t"}
	schema := newFakeSchema([]*model.Host{host}, ref)

	rows := []model.PartitionRow{
		{Keyspace: "ks", Table: "t", StartKey: nil,
			Replicas: map[string]string{host.Address: model.RoleLeader}},
		{Keyspace: "missing", Table: "t", StartKey: nil,
			Replicas: map[string]string{host.Address: model.RoleLeader}},
		{Keyspace: "ks", Table: "missing", StartKey: nil,
			Replicas: map[string]string{host.Address: model.RoleLeader}},
		{Keyspace: "ks", Table: "t", StartKey: []byte{0x01},
			Replicas: map[string]string{host.Address: model.RoleLeader}},
	}

	snapshot := buildSnapshot(rows, schema, nil, zap.NewNop())

	require.Len(t, snapshot, 1)
	require.Contains(t, snapshot, ref)
	assert.Equal(t, 1, snapshot[ref].Len(), "only the well-formed row survives")
}

func TestBuildSnapshotUndeterminableRange(t *testing.T) {
	// Replicas pointing at addresses absent from the topology view leave
	// the range present but without hosts, so lookups fall back.
	ref := model.TableRef{Keyspace: "ks", Table: "t"}
	schema := newFakeSchema(nil, ref)

	rows := []model.PartitionRow{
		{Keyspace: "ks", Table: "t", StartKey: nil,
			Replicas: map[string]string{"10.9.9.9:9042": model.RoleLeader}},
	}

	cache := NewCache(nil, zap.NewNop())
	require.True(t, cache.publish(buildSnapshot(rows, schema, nil, zap.NewNop())))

	assert.True(t, cache.HasTable(ref))
	assert.Empty(t, cache.GetHostsForKey(ref, 0))
}

func TestCachePublishAfterCloseDiscarded(t *testing.T) {
	cache := NewCache(nil, zap.NewNop())
	cache.Close()

	assert.False(t, cache.publish(Snapshot{}))
	assert.False(t, cache.HasSnapshot())
	assert.Zero(t, cache.LoadCount())
}

func TestCacheCloseKeepsServingLastSnapshot(t *testing.T) {
	host := &model.Host{ID: "a", Address: "10.0.0.1:9042"}
	ref := model.TableRef{Keyspace: "ks", Table: "t"}
	schema := newFakeSchema([]*model.Host{host}, ref)
	rows := []model.PartitionRow{
		{Keyspace: "ks", Table: "t", StartKey: nil,
			Replicas: map[string]string{host.Address: model.RoleLeader}},
	}

	cache := NewCache(nil, zap.NewNop())
	require.True(t, cache.publish(buildSnapshot(rows, schema, nil, zap.NewNop())))
	cache.Close()

	assert.Equal(t, []*model.Host{host}, cache.GetHostsForKey(ref, 0))
	assert.Equal(t, uint64(1), cache.LoadCount())
}

func TestCacheLoadCountIncrements(t *testing.T) {
	cache := NewCache(nil, zap.NewNop())

	require.True(t, cache.publish(Snapshot{}))
	require.True(t, cache.publish(Snapshot{}))

	assert.Equal(t, uint64(2), cache.LoadCount())
}

func TestCacheRouteTable(t *testing.T) {
	hostA := &model.Host{ID: "a", Address: "10.0.0.1:9042"}
	hostB := &model.Host{ID: "b", Address: "10.0.0.2:9042"}
	refT := model.TableRef{Keyspace: "ks", Table: "t"}
	refU := model.TableRef{Keyspace: "ks", Table: "u"}
	schema := newFakeSchema([]*model.Host{hostA, hostB}, refT, refU)

	rows := []model.PartitionRow{
		{Keyspace: "ks", Table: "u", StartKey: nil,
			Replicas: map[string]string{hostB.Address: model.RoleLeader}},
		{Keyspace: "ks", Table: "t", StartKey: nil,
			Replicas: map[string]string{hostA.Address: model.RoleLeader, hostB.Address: model.RoleFollower}},
		{Keyspace: "ks", Table: "t", StartKey: []byte{0x01, 0x00},
			Replicas: map[string]string{hostB.Address: model.RoleLeader}},
	}

	cache := NewCache(nil, zap.NewNop())
	assert.Nil(t, cache.RouteTable())
	require.True(t, cache.publish(buildSnapshot(rows, schema, nil, zap.NewNop())))

	routes := cache.RouteTable()
	require.Len(t, routes, 2)
	assert.Equal(t, "t", routes[0].Table)
	assert.Equal(t, "u", routes[1].Table)

	require.Len(t, routes[0].Ranges, 2)
	assert.Equal(t, 0, routes[0].Ranges[0].StartKey)
	assert.Equal(t, hostA.Address, routes[0].Ranges[0].Replicas[0])
	assert.Equal(t, 256, routes[0].Ranges[1].StartKey)
}

package partition

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devrev/pairdb/driver/internal/cluster"
	"github.com/devrev/pairdb/driver/internal/model"
	"github.com/devrev/pairdb/driver/internal/util/workerpool"
)

// fakeQuerier is a controllable catalog. A non-nil gate blocks every query
// until the gate is closed, which lets tests hold a reload in flight.
type fakeQuerier struct {
	mu    sync.Mutex
	calls int
	rows  []model.PartitionRow
	err   error
	gate  chan struct{}
}

func (q *fakeQuerier) QueryPartitions(ctx context.Context) ([]model.PartitionRow, error) {
	q.mu.Lock()
	q.calls++
	gate := q.gate
	q.mu.Unlock()

	if gate != nil {
		<-gate
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	rows := make([]model.PartitionRow, len(q.rows))
	copy(rows, q.rows)
	return rows, nil
}

func (q *fakeQuerier) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func (q *fakeQuerier) setErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.err = err
}

func (q *fakeQuerier) setRows(rows []model.PartitionRow) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rows = rows
}

type fakeSchema struct {
	hosts     []*model.Host
	keyspaces map[string]*model.KeyspaceMetadata
}

func newFakeSchema(hosts []*model.Host, refs ...model.TableRef) *fakeSchema {
	keyspaces := make(map[string]*model.KeyspaceMetadata)
	for _, ref := range refs {
		ks, ok := keyspaces[ref.Keyspace]
		if !ok {
			ks = &model.KeyspaceMetadata{
				Name:   ref.Keyspace,
				Tables: make(map[string]*model.TableMetadata),
			}
			keyspaces[ref.Keyspace] = ks
		}
		ks.Tables[ref.Table] = &model.TableMetadata{Keyspace: ref.Keyspace, Name: ref.Table}
	}
	return &fakeSchema{hosts: hosts, keyspaces: keyspaces}
}

func (s *fakeSchema) Keyspace(name string) (*model.KeyspaceMetadata, bool) {
	ks, ok := s.keyspaces[name]
	return ks, ok
}

func (s *fakeSchema) Hosts() []*model.Host {
	return s.hosts
}

type fakeHandle struct {
	querier cluster.MetadataQuerier
	schema  cluster.SchemaView
}

func (h *fakeHandle) Querier() cluster.MetadataQuerier { return h.querier }
func (h *fakeHandle) Schema() cluster.SchemaView       { return h.schema }

func newTestPool(t *testing.T) *workerpool.Pool {
	t.Helper()
	pool := workerpool.New(&workerpool.Config{
		Name:      "test-reloads",
		Workers:   1,
		QueueSize: 8,
	})
	t.Cleanup(func() { _ = pool.Stop(time.Second) })
	return pool
}

// waitForLoads waits until the refresher has published want snapshots and
// gone idle again, so a follow-up trigger cannot race the tail of a reload.
func waitForLoads(t *testing.T, r *Refresher, want uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		loading := r.loading
		r.mu.Unlock()
		return !loading && r.cache.LoadCount() >= want
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, want, r.cache.LoadCount())
}

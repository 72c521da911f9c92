package partition

import (
	"sort"

	"github.com/devrev/pairdb/driver/internal/model"
)

// Entry is one partition range of a table: the start key of the range and
// its replicas, leader first. An empty replica list means the range's owners
// could not be determined from the current topology view.
type Entry struct {
	StartKey int
	Hosts    []*model.Host
}

// Index is the immutable key-range index of one table. Entries have unique
// start keys and are sorted ascending; the index is built once per reload
// and never mutated afterwards, so it is safe for concurrent readers.
type Index struct {
	entries []Entry
}

// newIndex builds an Index from an unordered start-key-to-replicas map.
func newIndex(ranges map[int][]*model.Host) *Index {
	entries := make([]Entry, 0, len(ranges))
	for key, hosts := range ranges {
		entries = append(entries, Entry{StartKey: key, Hosts: hosts})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartKey < entries[j].StartKey
	})
	return &Index{entries: entries}
}

// Lookup returns the replicas of the range with the greatest start key less
// than or equal to key. A key below the first recorded boundary resolves to
// the smallest-key range; a healthy table always has a range starting at 0,
// so that case only arises on stale or partial metadata.
func (ix *Index) Lookup(key int) []*model.Host {
	if len(ix.entries) == 0 {
		return nil
	}
	i := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].StartKey > key
	})
	if i == 0 {
		return ix.entries[0].Hosts
	}
	return ix.entries[i-1].Hosts
}

// Len returns the number of partition ranges in the index.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns the ranges in ascending start key order. The returned
// slice is shared and must not be modified.
func (ix *Index) Entries() []Entry {
	return ix.entries
}

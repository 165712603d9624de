// Package dedup partitions freshly fetched event batches against the
// local store, so a pull never double-writes a record the store already
// holds or that appears twice within one batch.
package dedup

import (
	"github.com/mikesmullin/slack/internal/identity"
	"github.com/mikesmullin/slack/internal/remote"
)

// Stats is the running count a pull reports.
type Stats struct {
	Fetched int `yaml:"fetched_total"`
	Stored  int `yaml:"stored"`
	Skipped int `yaml:"skipped"`
}

// Store is the subset of the local store the deduplicator needs.
type Store interface {
	Exists(hash string) bool
}

type Deduplicator struct {
	store Store
	seen  map[string]struct{}
	stats Stats
}

func New(store Store) *Deduplicator {
	return &Deduplicator{
		store: store,
		seen:  make(map[string]struct{}),
	}
}

// Partition splits a batch into events to store and events to skip,
// preserving batch order. Events whose hash is already in the store are
// skipped, as are intra-batch duplicates (the second and later arrivals of
// the same identity within this pull). Events with an invalid identity are
// skipped and counted rather than failing the whole batch.
func (d *Deduplicator) Partition(batch []remote.Event) (toStore, skipped []remote.Event) {
	for _, ev := range batch {
		d.stats.Fetched++

		hash, err := identity.HashEvent(ev.ChannelID, ev.Timestamp, ev.ThreadTS)
		if err != nil {
			d.stats.Skipped++
			skipped = append(skipped, ev)
			continue
		}

		if _, dup := d.seen[hash]; dup || d.store.Exists(hash) {
			d.stats.Skipped++
			skipped = append(skipped, ev)
			continue
		}

		d.seen[hash] = struct{}{}
		d.stats.Stored++
		toStore = append(toStore, ev)
	}
	return toStore, skipped
}

// Stats returns the running counts across all partitioned batches.
func (d *Deduplicator) Stats() Stats {
	return d.stats
}

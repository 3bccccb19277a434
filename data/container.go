// Package data provides the process-wide interaction index. The index is
// built exactly once behind an initialization barrier and published through
// atomic values so concurrent readers never see a torn or partial build.
package data

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/interfaces"
	"github.com/medsafe/medsafe-api/logging"
)

// Compile-time check to ensure IndexContainer implements InteractionIndex
var _ interfaces.InteractionIndex = (*IndexContainer)(nil)

// LoadFunc produces the interaction records plus the number of source rows
// that were skipped during parsing.
type LoadFunc func() (records []entities.InteractionRecord, skippedRows int, err error)

// IndexContainer holds the interaction index with atomic pointers for
// lock-free reads. Init is a one-shot barrier: concurrent first callers
// perform the build exactly once and all of them observe the same outcome.
type IndexContainer struct {
	pairs      atomic.Value // map[string][]entities.InteractionRecord
	records    atomic.Value // []entities.InteractionRecord
	stats      atomic.Value // interfaces.IndexStats
	lastLoaded atomic.Value // time.Time
	ready      atomic.Bool

	buildOnce sync.Once
	buildErr  error
}

// NewIndexContainer creates an IndexContainer with empty data.
func NewIndexContainer() *IndexContainer {
	c := &IndexContainer{}
	c.pairs.Store(make(map[string][]entities.InteractionRecord))
	c.records.Store(make([]entities.InteractionRecord, 0))
	c.stats.Store(interfaces.IndexStats{})
	c.lastLoaded.Store(time.Time{})
	return c
}

// Init builds the index from the given loader. The build runs at most once
// per container; every caller blocks until it finishes and receives the same
// error outcome. A failed build leaves the container not ready.
func (c *IndexContainer) Init(load LoadFunc) error {
	c.buildOnce.Do(func() {
		start := time.Now()

		records, skipped, err := load()
		if err != nil {
			c.buildErr = fmt.Errorf("interaction index build failed: %w", err)
			return
		}

		pairs := make(map[string][]entities.InteractionRecord, len(records))
		for _, r := range records {
			key := PairKey(r.DrugA, r.DrugB)
			// Duplicate and variant rows for the same pair are all kept.
			pairs[key] = append(pairs[key], r)
		}

		c.pairs.Store(pairs)
		c.records.Store(records)
		c.stats.Store(interfaces.IndexStats{
			RecordCount: len(records),
			PairCount:   len(pairs),
			SkippedRows: skipped,
		})
		c.lastLoaded.Store(time.Now())
		c.ready.Store(true)

		logging.Info("Interaction index built",
			"records", len(records),
			"pairs", len(pairs),
			"skipped_rows", skipped,
			"duration", time.Since(start).String())
	})

	return c.buildErr
}

// PairKey builds the canonical unordered-pair key, so lookup direction never
// matters.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Lookup returns every interaction record for the unordered pair
// (drugX, drugY). A self-pair or unknown pair returns nil, never an error.
func (c *IndexContainer) Lookup(drugX, drugY string) []entities.InteractionRecord {
	if drugX == "" || drugY == "" || drugX == drugY {
		return nil
	}
	return c.pairsMap()[PairKey(drugX, drugY)]
}

// Records returns all interaction records in load order.
func (c *IndexContainer) Records() []entities.InteractionRecord {
	if v := c.records.Load(); v != nil {
		if records, ok := v.([]entities.InteractionRecord); ok {
			return records
		}
	}

	logging.Warn("Interaction records list is empty or invalid")
	return []entities.InteractionRecord{}
}

// Stats returns the build statistics of the index.
func (c *IndexContainer) Stats() interfaces.IndexStats {
	if v := c.stats.Load(); v != nil {
		if stats, ok := v.(interfaces.IndexStats); ok {
			return stats
		}
	}

	logging.Warn("Index stats are empty or invalid")
	return interfaces.IndexStats{}
}

// LastLoaded returns the timestamp of the index build.
func (c *IndexContainer) LastLoaded() time.Time {
	if v := c.lastLoaded.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the last loaded value")
	return time.Time{}
}

// Ready reports whether the index finished building successfully.
func (c *IndexContainer) Ready() bool {
	return c.ready.Load()
}

func (c *IndexContainer) pairsMap() map[string][]entities.InteractionRecord {
	if v := c.pairs.Load(); v != nil {
		if pairs, ok := v.(map[string][]entities.InteractionRecord); ok {
			return pairs
		}
	}

	logging.Warn("Interaction pair map is empty or invalid")
	return make(map[string][]entities.InteractionRecord)
}

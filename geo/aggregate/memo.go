package aggregate

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/fleetd/types/runtrack"
)

// Memo caches aggregates by group key and a fingerprint of the input runs.
// Any change to a run changes the fingerprint, so stale entries are simply
// never hit again and age out of the LRU.
type Memo struct {
	cache *lru.Cache[string, *runtrack.AggregatedRun]
}

func NewMemo(size int) (*Memo, error) {
	c, err := lru.New[string, *runtrack.AggregatedRun](size)
	if err != nil {
		return nil, err
	}
	return &Memo{cache: c}, nil
}

// Aggregate is Aggregate, memoized.
func (m *Memo) Aggregate(key runtrack.RunKey, runs []*runtrack.Run) *runtrack.AggregatedRun {
	fp, err := hashstructure.Hash(runs, hashstructure.FormatV2, nil)
	if err != nil {
		slog.Warn("Aggregate fingerprint failed, computing uncached", "key", key, "error", err)
		return Aggregate(key, runs)
	}
	ck := fmt.Sprintf("%s#%d", key, fp)
	if agg, ok := m.cache.Get(ck); ok {
		return agg
	}
	agg := Aggregate(key, runs)
	m.cache.Add(ck, agg)
	return agg
}

func (m *Memo) Len() int {
	return m.cache.Len()
}

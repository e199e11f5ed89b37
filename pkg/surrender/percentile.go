package surrender

import (
	"sort"
	"sync"
)

// PercentileIndex ranks an index value against the current season and against
// the full archive of punts since 1999. Both sample sets are kept sorted so a
// rank is two binary searches. Safe for concurrent use.
type PercentileIndex struct {
	mu         sync.RWMutex
	historical []float64
	season     []float64
}

// NewPercentileIndex builds a ranking index from the archived values and the
// season so far. Both slices are copied.
func NewPercentileIndex(historical, season []float64) *PercentileIndex {
	h := make([]float64, len(historical))
	copy(h, historical)
	sort.Float64s(h)

	s := make([]float64, len(season))
	copy(s, season)
	sort.Float64s(s)

	return &PercentileIndex{historical: h, season: s}
}

// Rank returns the strict percentile of value within the current season and
// within the combined history (archive plus season): the share of samples
// strictly below the value, scaled to 0-100. An empty sample set ranks the
// value at the 100th percentile. Rank does not add the value; call Add
// afterward so a punt is never ranked against itself.
func (p *PercentileIndex) Rank(value float64) (seasonPct, historyPct float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seasonBelow := countBelow(p.season, value)
	if len(p.season) == 0 {
		seasonPct = 100.0
	} else {
		seasonPct = 100.0 * float64(seasonBelow) / float64(len(p.season))
	}

	total := len(p.historical) + len(p.season)
	if total == 0 {
		historyPct = 100.0
	} else {
		below := countBelow(p.historical, value) + seasonBelow
		historyPct = 100.0 * float64(below) / float64(total)
	}

	return seasonPct, historyPct
}

// Add inserts a new season value, keeping the season slice sorted.
func (p *PercentileIndex) Add(value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := sort.SearchFloat64s(p.season, value)
	p.season = append(p.season, 0)
	copy(p.season[i+1:], p.season[i:])
	p.season[i] = value
}

// SeasonCount returns the number of season samples.
func (p *PercentileIndex) SeasonCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.season)
}

// HistoryCount returns the number of archived samples, excluding the season.
func (p *PercentileIndex) HistoryCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.historical)
}

// countBelow returns how many values in the sorted slice are strictly less
// than v.
func countBelow(sorted []float64, v float64) int {
	return sort.SearchFloat64s(sorted, v)
}

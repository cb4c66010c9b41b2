package analysis

import (
	"sort"

	"github.com/ecodeclub/ekit/mapx"

	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// GroupSummary aggregates one numeric column over the rows sharing a key.
type GroupSummary struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
}

// Order selects how GroupBy sorts its result.
type Order int

const (
	ByMeanDesc Order = iota
	BySumDesc
	ByCountDesc
)

// GroupBy groups rows by the text field key and aggregates the present values
// of value. Groups with fewer than minSize values are dropped. Ties fall back to key order.
func GroupBy(rows []dataset.Row, key, value dataset.Field, minSize int, order Order) []GroupSummary {
	acc := make(map[string]*GroupSummary)
	for _, r := range rows {
		v, ok := r.Value(value)
		if !ok {
			continue
		}
		k := r.Text(key)
		g, ok := acc[k]
		if !ok {
			g = &GroupSummary{Key: k}
			acc[k] = g
		}
		g.Count++
		g.Sum += v
	}
	out := make([]GroupSummary, 0, len(acc))
	for _, g := range mapx.Values(acc) {
		if g.Count < minSize {
			continue
		}
		g.Mean = g.Sum / float64(g.Count)
		out = append(out, *g)
	}
	sortGroups(out, order)
	return out
}

// Counts tallies rows per value of a text field, most frequent first.
func Counts(rows []dataset.Row, key dataset.Field) []GroupSummary {
	acc := make(map[string]int)
	for _, r := range rows {
		acc[r.Text(key)]++
	}
	out := make([]GroupSummary, 0, len(acc))
	for _, k := range mapx.Keys(acc) {
		out = append(out, GroupSummary{Key: k, Count: acc[k]})
	}
	sortGroups(out, ByCountDesc)
	return out
}

// MeanBy averages value per key over arbitrary items, highest mean first.
func MeanBy[T any](items []T, key func(T) string, value func(T) float64) []GroupSummary {
	acc := make(map[string]*GroupSummary)
	for _, it := range items {
		k := key(it)
		g, ok := acc[k]
		if !ok {
			g = &GroupSummary{Key: k}
			acc[k] = g
		}
		g.Count++
		g.Sum += value(it)
	}
	out := make([]GroupSummary, 0, len(acc))
	for _, g := range acc {
		g.Mean = g.Sum / float64(g.Count)
		out = append(out, *g)
	}
	sortGroups(out, ByMeanDesc)
	return out
}

func sortGroups(gs []GroupSummary, order Order) {
	metric := func(g GroupSummary) float64 {
		switch order {
		case BySumDesc:
			return g.Sum
		case ByCountDesc:
			return float64(g.Count)
		}
		return g.Mean
	}
	sort.Slice(gs, func(i, j int) bool {
		mi, mj := metric(gs[i]), metric(gs[j])
		if mi != mj {
			return mi > mj
		}
		return gs[i].Key < gs[j].Key
	})
}

// Head returns the first n groups, or all when n <= 0.
func Head(gs []GroupSummary, n int) []GroupSummary {
	if n <= 0 || n >= len(gs) {
		return gs
	}
	return gs[:n]
}

package dashboard

import (
	"github.com/ecodeclub/ekit/slice"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// Params is the full parameter set of one dashboard evaluation.
type Params struct {
	Keywords     []string                `json:"keywords"`
	Outliers     analysis.OutlierOptions `json:"outliers"`
	Selection    Selection               `json:"selection"`
	MinGroupSize int                     `json:"min_group_size"`
	TopN         int                     `json:"top_n"`
	View         analysis.RankingView    `json:"-"`
}

// DefaultParams matches the configuration defaults with an empty selection.
func DefaultParams() Params {
	return Params{
		Keywords:     analysis.DefaultKeywords,
		Outliers:     analysis.DefaultOutlierOptions(),
		MinGroupSize: 3,
		TopN:         20,
	}
}

// Selection restricts rows by industry, city and tier. An empty list does not filter.
type Selection struct {
	Industries []string       `json:"industries,omitempty"`
	Cities     []string       `json:"cities,omitempty"`
	Tiers      []dataset.Tier `json:"tiers,omitempty"`
}

// Empty reports whether the selection keeps every row.
func (s Selection) Empty() bool {
	return len(s.Industries) == 0 && len(s.Cities) == 0 && len(s.Tiers) == 0
}

// Apply returns the rows matching every non-empty list.
func (s Selection) Apply(rows []dataset.Row) []dataset.Row {
	if s.Empty() {
		return rows
	}
	industries := toSet(s.Industries)
	cities := toSet(s.Cities)
	tiers := toSet(s.Tiers)
	return slice.FilterMap(rows, func(_ int, r dataset.Row) (dataset.Row, bool) {
		ok := (industries == nil || industries[r.Industry]) &&
			(cities == nil || cities[r.City]) &&
			(tiers == nil || tiers[r.Tier])
		return r, ok
	})
}

func toSet[T comparable](vals []T) map[T]bool {
	if len(vals) == 0 {
		return nil
	}
	m := make(map[T]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

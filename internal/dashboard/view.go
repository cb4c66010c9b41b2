package dashboard

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// View evaluates dashboard sections for one dataset and parameter set.
// It never mutates the dataset, so views over a shared dataset may run concurrently.
type View struct {
	ds     *dataset.Dataset
	p      Params
	dsAll  int
	picked []dataset.Row
	rows   []dataset.Row
}

// NewView applies the selection and the keyword filter once.
func NewView(ds *dataset.Dataset, p Params) *View {
	if p.MinGroupSize <= 0 {
		p.MinGroupSize = 1
	}
	if p.TopN <= 0 {
		p.TopN = 20
	}
	picked := p.Selection.Apply(ds.Rows)
	return &View{
		ds:     ds,
		p:      p,
		dsAll:  len(analysis.FilterByKeywords(ds.Rows, p.Keywords)),
		picked: picked,
		rows:   analysis.FilterByKeywords(picked, p.Keywords),
	}
}

// Rows returns the data-analyst rows left after selection and keyword filtering.
func (v *View) Rows() []dataset.Row { return v.rows }

// Params returns the normalized parameters.
func (v *View) Params() Params { return v.p }

// Overview counts rows at each filtering stage.
type Overview struct {
	Dataset        string  `json:"dataset"`
	TotalRows      int     `json:"total_rows"`
	DSRows         int     `json:"ds_rows"`
	DSShare        float64 `json:"ds_share_pct"`
	SelectedRows   int     `json:"selected_rows"`
	SelectedDSRows int     `json:"selected_ds_rows"`
	SelectedDSPct  float64 `json:"selected_ds_pct"`
	SelectedPct    float64 `json:"selected_pct"`
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// Overview never fails; an empty dataset yields zero counts.
func (v *View) Overview() Overview {
	total := v.ds.Len()
	return Overview{
		Dataset:        v.ds.Name,
		TotalRows:      total,
		DSRows:         v.dsAll,
		DSShare:        pct(v.dsAll, total),
		SelectedRows:   len(v.picked),
		SelectedDSRows: len(v.rows),
		SelectedDSPct:  pct(len(v.rows), len(v.picked)),
		SelectedPct:    pct(len(v.picked), total),
	}
}

// Options lists the selectable values and the default selection.
type Options struct {
	Industries []string       `json:"industries"`
	Cities     []string       `json:"cities"`
	Tiers      []dataset.Tier `json:"tiers"`
	Default    Selection      `json:"default"`
}

// BuildOptions collects sorted distinct industries, cities and tiers. The default
// selection takes the first maxIndustries industries, the first maxCities cities and all tiers.
func BuildOptions(ds *dataset.Dataset, maxIndustries, maxCities int) Options {
	industries := distinct(ds.Rows, func(r dataset.Row) string { return r.Industry })
	cities := distinct(ds.Rows, func(r dataset.Row) string { return r.City })
	tierNames := distinct(ds.Rows, func(r dataset.Row) string { return string(r.Tier) })
	tiers := make([]dataset.Tier, len(tierNames))
	for i, t := range tierNames {
		tiers[i] = dataset.Tier(t)
	}
	return Options{
		Industries: industries,
		Cities:     cities,
		Tiers:      tiers,
		Default: Selection{
			Industries: head(industries, maxIndustries),
			Cities:     head(cities, maxCities),
			Tiers:      tiers,
		},
	}
}

func distinct(rows []dataset.Row, key func(dataset.Row) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		k := key(r)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func head(vals []string, n int) []string {
	if n <= 0 || n >= len(vals) {
		return vals
	}
	return vals[:n]
}

// emptyErr reports an empty section subset.
func emptyErr(section string) error {
	return fmt.Errorf("%s: %w", section, analysis.ErrEmptyAfterFilter)
}

func (v *View) require(section string, fields ...dataset.Field) error {
	if err := v.ds.Require(fields...); err != nil {
		return fmt.Errorf("%s: %w", section, err)
	}
	if len(v.rows) == 0 {
		return emptyErr(section)
	}
	return nil
}

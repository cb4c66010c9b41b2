package analysis

import (
	"math"

	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// MaxDSRatio is the upper bound (in percent) for a row to be scored.
const MaxDSRatio = 50

// SubScores holds the six components of the composite score.
type SubScores struct {
	Salary    float64 `json:"salary"`    // [0,25]
	Size      float64 `json:"size"`      // [0,20]
	Tier      float64 `json:"tier"`      // [0,15]
	Team      float64 `json:"team"`      // [0,15]
	Ratio     float64 `json:"ratio"`     // [0,10]
	Stability float64 `json:"stability"` // [0,15]
}

// Sum is the composite score.
func (s SubScores) Sum() float64 {
	return s.Salary + s.Size + s.Tier + s.Team + s.Ratio + s.Stability
}

// ScoredRow is a row that passed the validity check, with its scores and ranks.
type ScoredRow struct {
	dataset.Row
	DSRatio      float64   `json:"ds_ratio"`
	Scores       SubScores `json:"scores"`
	Composite    float64   `json:"composite"`
	GlobalRank   int       `json:"global_rank"`
	IndustryRank int       `json:"industry_rank"`
}

// band is a piecewise-linear score shape over percentile breakpoints:
// x >= P75 scores Top; P25 <= x < P75 scores Mid..Top; x < P25 scores Low..Mid.
type band struct {
	Low, Mid, Top float64
}

var (
	salaryBand    = band{Low: 5, Mid: 15, Top: 25}
	teamBand      = band{Low: 3, Mid: 8, Top: 15}
	stabilityBand = band{Low: 3, Mid: 8, Top: 15}
)

var tierScores = map[dataset.Tier]float64{
	dataset.TierHead:  15,
	dataset.TierWaist: 10,
	dataset.TierTail:  5,
}

const missingTierScore = 7.5

// percentiles are the breakpoints of one scored column over the valid subset.
type percentiles struct {
	min, p25, p75, max float64
}

func percentilesOf(vals []float64) percentiles {
	sorted := sortedCopy(vals)
	return percentiles{
		min: sorted[0],
		p25: Quantile(sorted, 0.25),
		p75: Quantile(sorted, 0.75),
		max: sorted[len(sorted)-1],
	}
}

// lerp maps x from [from, to] onto [lo, hi]. A non-positive span saturates at hi.
func lerp(x, from, to, lo, hi float64) float64 {
	span := to - from
	if span <= 0 {
		return hi
	}
	return lo + (x-from)/span*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (b band) score(x float64, p percentiles) float64 {
	var v float64
	switch {
	case x >= p.p75:
		v = b.Top
	case x >= p.p25:
		v = lerp(x, p.p25, p.p75, b.Mid, b.Top)
	default:
		v = lerp(x, p.min, p.p25, b.Low, b.Mid)
	}
	return clamp(v, 0, b.Top)
}

func sizeScore(emp, maxEmp float64) float64 {
	var v float64
	switch {
	case emp >= 1000 && emp <= 10000:
		v = 20
	case emp > 10000:
		v = falloff(emp, 10000, maxEmp, 15, 20)
	default:
		v = 10 + 10*(emp/1000)
	}
	return clamp(v, 0, 20)
}

func ratioScore(ratio, maxRatio float64) float64 {
	var v float64
	switch {
	case ratio >= 2 && ratio <= 8:
		v = 10
	case ratio > 8:
		v = falloff(ratio, 8, maxRatio, 8, 10)
	default:
		v = 5 + 5*(ratio/2)
	}
	return clamp(v, 0, 10)
}

// falloff maps x from [from, to] onto [hi, lo], decreasing. A non-positive span saturates at hi.
func falloff(x, from, to, lo, hi float64) float64 {
	span := to - from
	if span <= 0 {
		return hi
	}
	return lo + (hi-lo)*(1-(x-from)/span)
}

func tierScore(t dataset.Tier) float64 {
	if v, ok := tierScores[t]; ok {
		return v
	}
	return missingTierScore
}

// validForScoring applies the five-clause check and returns the DS ratio.
func validForScoring(r dataset.Row) (float64, bool) {
	inc, ok1 := r.Value(dataset.FieldAvgAnnualIncome)
	team, ok2 := r.Value(dataset.FieldIncumbentCount)
	emp, ok3 := r.Value(dataset.FieldEmployeeCount)
	days, ok4 := r.Value(dataset.FieldAvgTenureDays)
	if !ok1 || !ok2 || !ok3 || !ok4 || inc <= 0 || team <= 0 || emp <= 0 || days <= 0 {
		return 0, false
	}
	ratio, _ := r.Value(dataset.FieldDSRatio)
	if ratio > MaxDSRatio {
		return 0, false
	}
	return ratio, true
}

// ScoreCompanies scores every valid row and ranks them. The result is ordered by
// global rank. Breakpoints are recomputed from the valid subset on each call,
// so the input is never modified and repeated calls give identical output.
func ScoreCompanies(rows []dataset.Row) ([]ScoredRow, error) {
	scored := make([]ScoredRow, 0, len(rows))
	for _, r := range rows {
		ratio, ok := validForScoring(r)
		if !ok {
			continue
		}
		scored = append(scored, ScoredRow{Row: r, DSRatio: ratio})
	}
	if len(scored) == 0 {
		return nil, ErrNoScoringData
	}

	col := func(f func(s ScoredRow) float64) []float64 {
		out := make([]float64, len(scored))
		for i, s := range scored {
			out[i] = f(s)
		}
		return out
	}
	income := percentilesOf(col(func(s ScoredRow) float64 { return *s.AvgAnnualIncome }))
	team := percentilesOf(col(func(s ScoredRow) float64 { return *s.IncumbentCount }))
	tenure := percentilesOf(col(func(s ScoredRow) float64 { return *s.AvgTenureDays }))
	size := percentilesOf(col(func(s ScoredRow) float64 { return *s.EmployeeCount }))
	ratio := percentilesOf(col(func(s ScoredRow) float64 { return s.DSRatio }))

	for i := range scored {
		s := &scored[i]
		s.Scores = SubScores{
			Salary:    salaryBand.score(*s.AvgAnnualIncome, income),
			Size:      sizeScore(*s.EmployeeCount, size.max),
			Tier:      tierScore(s.Tier),
			Team:      teamBand.score(*s.IncumbentCount, team),
			Ratio:     ratioScore(s.DSRatio, ratio.max),
			Stability: stabilityBand.score(*s.AvgTenureDays, tenure),
		}
		s.Composite = s.Scores.Sum()
	}

	rank(scored)
	return scored, nil
}

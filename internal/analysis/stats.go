package analysis

import (
	"math"
	"sort"

	"github.com/ecodeclub/ekit/slice"

	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// Stats summarizes a numeric sample.
type Stats struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes count, sum, mean, median, sample std, min and max.
// Std is 0 for fewer than two values.
func Describe(vals []float64) Stats {
	if len(vals) == 0 {
		return Stats{}
	}
	s := Stats{Count: len(vals), Min: math.Inf(1), Max: math.Inf(-1)}
	var m2 float64
	for i, x := range vals {
		s.Sum += x
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
		// Welford update
		delta := x - s.Mean
		s.Mean += delta / float64(i+1)
		m2 += delta * (x - s.Mean)
	}
	if s.Count > 1 {
		s.Std = math.Sqrt(m2 / float64(s.Count-1))
	}
	s.Median = Quantile(sortedCopy(vals), 0.5)
	return s
}

// Quantile returns the q-quantile of sorted values using linear interpolation
// between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Values extracts the present values of f, in row order.
func Values(rows []dataset.Row, f dataset.Field) []float64 {
	return slice.FilterMap(rows, func(_ int, r dataset.Row) (float64, bool) {
		return r.Value(f)
	})
}

// Bin is one equal-width histogram bucket; Hi is inclusive only for the last bin.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Histogram buckets vals into n equal-width bins spanning [min, max].
// A sample without spread yields a single bin.
func Histogram(vals []float64, n int) []Bin {
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	st := Describe(vals)
	if st.Max == st.Min {
		return []Bin{{Lo: st.Min, Hi: st.Max, Count: len(vals)}}
	}
	width := (st.Max - st.Min) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = st.Min + float64(i)*width
		bins[i].Hi = st.Min + float64(i+1)*width
	}
	bins[n-1].Hi = st.Max
	for _, x := range vals {
		idx := int((x - st.Min) / width)
		if idx >= n {
			idx = n - 1
		}
		bins[idx].Count++
	}
	return bins
}

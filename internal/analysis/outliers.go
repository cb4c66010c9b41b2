package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// Method selects the outlier detection rule.
type Method string

const (
	MethodIQR    Method = "iqr"
	MethodZScore Method = "zscore"
)

// DefaultMultiplier is the whisker (IQR) or |z| (z-score) threshold.
const DefaultMultiplier = 1.5

// ParseMethod accepts "iqr", "zscore" and "z-score" in any case.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "iqr", "":
		return MethodIQR, nil
	case "zscore", "z-score", "z":
		return MethodZScore, nil
	}
	return "", fmt.Errorf("%w: %q (use iqr|zscore)", ErrUnknownMethod, s)
}

// OutlierOptions parameterizes FilterOutliers.
type OutlierOptions struct {
	// Enabled turns statistical trimming on; non-positive values are dropped regardless.
	Enabled    bool
	Method     Method
	Multiplier float64
}

// DefaultOutlierOptions enables IQR trimming with the 1.5 whisker.
func DefaultOutlierOptions() OutlierOptions {
	return OutlierOptions{Enabled: true, Method: MethodIQR, Multiplier: DefaultMultiplier}
}

// FilterOutliers drops rows whose field is missing or <= 0 and, when enabled,
// rows outside the IQR fences or at/above the z-score threshold.
// The result preserves input order and shares row values with the input.
// An empty result is not an error; callers report ErrEmptyAfterFilter.
func FilterOutliers(rows []dataset.Row, field dataset.Field, opt OutlierOptions) ([]dataset.Row, error) {
	if !field.IsNumeric() {
		return nil, &dataset.MissingFieldError{Field: field, Available: dataset.NumericFields}
	}
	method := opt.Method
	if method == "" {
		method = MethodIQR
	}
	if method != MethodIQR && method != MethodZScore {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	mult := opt.Multiplier
	if mult <= 0 {
		mult = DefaultMultiplier
	}

	kept := make([]dataset.Row, 0, len(rows))
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		v, ok := r.Value(field)
		if !ok || v <= 0 {
			continue
		}
		kept = append(kept, r)
		vals = append(vals, v)
	}
	if !opt.Enabled || len(kept) == 0 {
		return kept, nil
	}

	var keep func(v float64) bool
	switch method {
	case MethodIQR:
		sorted := sortedCopy(vals)
		q1 := Quantile(sorted, 0.25)
		q3 := Quantile(sorted, 0.75)
		iqr := q3 - q1
		lower, upper := q1-mult*iqr, q3+mult*iqr
		keep = func(v float64) bool { return v >= lower && v <= upper }
	case MethodZScore:
		st := Describe(vals)
		if st.Count < 2 || st.Std == 0 || math.IsNaN(st.Std) {
			// no spread, nothing stands out
			return kept, nil
		}
		keep = func(v float64) bool { return math.Abs(v-st.Mean)/st.Std < mult }
	}

	out := make([]dataset.Row, 0, len(kept))
	for i, r := range kept {
		if keep(vals[i]) {
			out = append(out, r)
		}
	}
	return out, nil
}

package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dsdash/internal/dataset"
)

func company(industry, name string, income, team, employees, tenure float64, tier dataset.Tier) dataset.Row {
	return dataset.Row{
		Industry:        industry,
		PositionTitle:   "数据分析师",
		CompanyName:     name,
		Tier:            tier,
		AvgAnnualIncome: dataset.Float(income),
		IncumbentCount:  dataset.Float(team),
		EmployeeCount:   dataset.Float(employees),
		AvgTenureDays:   dataset.Float(tenure),
	}
}

func randomCompanies(n int, seed int64) []dataset.Row {
	rng := rand.New(rand.NewSource(seed))
	industries := []string{"互联网", "金融", "教育", "制造"}
	tiers := []dataset.Tier{dataset.TierHead, dataset.TierWaist, dataset.TierTail, dataset.TierMissing}
	rows := make([]dataset.Row, n)
	for i := range rows {
		emp := float64(rng.Intn(50000) + 1)
		rows[i] = company(
			industries[rng.Intn(len(industries))],
			fmt.Sprintf("company-%03d", i),
			float64(rng.Intn(400000)+1000),
			math.Max(1, math.Floor(emp*rng.Float64()*0.2)),
			emp,
			float64(rng.Intn(2000)+1),
			tiers[rng.Intn(len(tiers))],
		)
	}
	return rows
}

func TestScoreCompanies_TwoRowDegenerate(t *testing.T) {
	rows := []dataset.Row{
		company("互联网", "甲", 100000, 5, 2000, 300, dataset.TierHead),
		company("互联网", "乙", 50000, 2, 500, 100, dataset.TierTail),
	}
	got, err := ScoreCompanies(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	a, b := got[0], got[1]
	assert.Equal(t, "甲", a.CompanyName)
	assert.InDelta(t, 25, a.Scores.Salary, 1e-9)
	assert.InDelta(t, 20, a.Scores.Size, 1e-9)
	assert.InDelta(t, 15, a.Scores.Tier, 1e-9)
	assert.InDelta(t, 15, a.Scores.Team, 1e-9)
	assert.InDelta(t, 5.625, a.Scores.Ratio, 1e-9)
	assert.InDelta(t, 15, a.Scores.Stability, 1e-9)
	assert.InDelta(t, 95.625, a.Composite, 1e-9)

	assert.Equal(t, "乙", b.CompanyName)
	assert.InDelta(t, 5, b.Scores.Salary, 1e-9)
	assert.InDelta(t, 15, b.Scores.Size, 1e-9)
	assert.InDelta(t, 5, b.Scores.Tier, 1e-9)
	assert.InDelta(t, 3, b.Scores.Team, 1e-9)
	assert.InDelta(t, 6, b.Scores.Ratio, 1e-9)
	assert.InDelta(t, 3, b.Scores.Stability, 1e-9)
	assert.InDelta(t, 37, b.Composite, 1e-9)

	assert.Equal(t, []int{1, 2}, []int{a.GlobalRank, b.GlobalRank})
	assert.Equal(t, []int{1, 2}, []int{a.IndustryRank, b.IndustryRank})
}

func TestScoreCompanies_IdenticalRowsSaturate(t *testing.T) {
	rows := []dataset.Row{
		company("金融", "b", 80000, 10, 3000, 400, dataset.TierWaist),
		company("金融", "a", 80000, 10, 3000, 400, dataset.TierWaist),
		company("金融", "c", 80000, 10, 3000, 400, dataset.TierWaist),
	}
	got, err := ScoreCompanies(rows)
	require.NoError(t, err)
	for _, s := range got {
		assert.False(t, math.IsNaN(s.Composite) || math.IsInf(s.Composite, 0))
		assert.Equal(t, 25.0, s.Scores.Salary)
		assert.Equal(t, 15.0, s.Scores.Team)
		assert.Equal(t, 15.0, s.Scores.Stability)
		assert.Equal(t, 1, s.IndustryRank)
	}
	// equal composites fall back to company name
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].CompanyName, got[1].CompanyName, got[2].CompanyName})
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].GlobalRank, got[1].GlobalRank, got[2].GlobalRank})
}

func TestScoreCompanies_Validity(t *testing.T) {
	rows := []dataset.Row{
		company("互联网", "ok", 100000, 5, 2000, 300, dataset.TierHead),
		company("互联网", "ratio too high", 100000, 60, 100, 300, dataset.TierHead),
		company("互联网", "zero income", 0, 5, 2000, 300, dataset.TierHead),
		company("互联网", "no team", 100000, 0, 2000, 300, dataset.TierHead),
		company("互联网", "no tenure", 100000, 5, 2000, -1, dataset.TierHead),
		{Industry: "互联网", CompanyName: "missing", AvgAnnualIncome: dataset.Float(1)},
	}
	got, err := ScoreCompanies(rows)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].CompanyName)
	assert.InDelta(t, 0.25, got[0].DSRatio, 1e-12)
}

func TestScoreCompanies_RatioAtFiftyIsValid(t *testing.T) {
	got, err := ScoreCompanies([]dataset.Row{company("x", "half", 1, 50, 100, 1, dataset.TierMissing)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7.5, got[0].Scores.Tier)
	// 50% is the largest ratio in the set, so the falloff bottoms out at 8
	assert.InDelta(t, 8, got[0].Scores.Ratio, 1e-9)
}

func TestScoreCompanies_NoValidRows(t *testing.T) {
	for _, rows := range [][]dataset.Row{nil, {company("x", "y", 0, 0, 0, 0, dataset.TierHead)}} {
		got, err := ScoreCompanies(rows)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrNoScoringData)
		assert.ErrorIs(t, err, ErrEmptyAfterFilter)
	}
}

func TestScoreCompanies_Properties(t *testing.T) {
	rows := randomCompanies(300, 7)
	before := make([]dataset.Row, len(rows))
	copy(before, rows)

	got, err := ScoreCompanies(rows)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, before, rows, "input must not be reordered")

	seen := make(map[int]bool, len(got))
	for i, s := range got {
		assert.GreaterOrEqual(t, s.Composite, 0.0)
		assert.LessOrEqual(t, s.Composite, 100.0)
		assert.InDelta(t, s.Scores.Sum(), s.Composite, 1e-12)
		assertInBand(t, s.Scores.Salary, 0, 25)
		assertInBand(t, s.Scores.Size, 0, 20)
		assertInBand(t, s.Scores.Tier, 0, 15)
		assertInBand(t, s.Scores.Team, 0, 15)
		assertInBand(t, s.Scores.Ratio, 0, 10)
		assertInBand(t, s.Scores.Stability, 0, 15)

		assert.Equal(t, i+1, s.GlobalRank)
		seen[s.GlobalRank] = true
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Composite, s.Composite)
		}
	}
	assert.Len(t, seen, len(got))

	// dense per-industry ranks
	type last struct {
		score float64
		rank  int
	}
	byIndustry := map[string]last{}
	for _, s := range got {
		prev, ok := byIndustry[s.Industry]
		switch {
		case !ok:
			assert.Equal(t, 1, s.IndustryRank)
		case prev.score == s.Composite:
			assert.Equal(t, prev.rank, s.IndustryRank)
		default:
			assert.Equal(t, prev.rank+1, s.IndustryRank)
		}
		byIndustry[s.Industry] = last{score: s.Composite, rank: s.IndustryRank}
	}
}

func TestScoreCompanies_Idempotent(t *testing.T) {
	rows := randomCompanies(120, 42)
	first, err := ScoreCompanies(rows)
	require.NoError(t, err)
	second, err := ScoreCompanies(rows)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreCompanies_DenseIndustryRank(t *testing.T) {
	rows := []dataset.Row{
		company("教育", "top-1", 90000, 9, 3000, 500, dataset.TierHead),
		company("教育", "top-2", 90000, 9, 3000, 500, dataset.TierHead),
		company("教育", "low", 20000, 1, 300, 50, dataset.TierTail),
		company("金融", "other", 60000, 4, 2000, 200, dataset.TierWaist),
	}
	got, err := ScoreCompanies(rows)
	require.NoError(t, err)
	ranks := map[string]int{}
	for _, s := range got {
		ranks[s.CompanyName] = s.IndustryRank
	}
	assert.Equal(t, map[string]int{"top-1": 1, "top-2": 1, "low": 2, "other": 1}, ranks)
}

func TestSizeScore(t *testing.T) {
	testCases := []struct {
		emp, max float64
		want     float64
	}{
		{emp: 1000, max: 50000, want: 20},
		{emp: 10000, max: 50000, want: 20},
		{emp: 500, max: 50000, want: 15},
		{emp: 999, max: 50000, want: 19.99},
		{emp: 30000, max: 50000, want: 17.5},
		{emp: 50000, max: 50000, want: 15},
		{emp: 10001, max: 10000, want: 20},
	}
	for _, tc := range testCases {
		assert.InDelta(t, tc.want, sizeScore(tc.emp, tc.max), 1e-9, "emp=%v", tc.emp)
	}
}

func TestRatioScore(t *testing.T) {
	testCases := []struct {
		ratio, max float64
		want       float64
	}{
		{ratio: 2, max: 20, want: 10},
		{ratio: 8, max: 20, want: 10},
		{ratio: 1, max: 20, want: 7.5},
		{ratio: 14, max: 20, want: 9},
		{ratio: 20, max: 20, want: 8},
	}
	for _, tc := range testCases {
		assert.InDelta(t, tc.want, ratioScore(tc.ratio, tc.max), 1e-9, "ratio=%v", tc.ratio)
	}
}

func TestBandScore(t *testing.T) {
	p := percentiles{min: 10, p25: 20, p75: 40, max: 100}
	assert.InDelta(t, 25, salaryBand.score(40, p), 1e-9)
	assert.InDelta(t, 20, salaryBand.score(30, p), 1e-9)
	assert.InDelta(t, 15, salaryBand.score(20, p), 1e-9)
	assert.InDelta(t, 10, salaryBand.score(15, p), 1e-9)
	assert.InDelta(t, 5, salaryBand.score(10, p), 1e-9)
	assert.InDelta(t, 11.5, teamBand.score(30, p), 1e-9)

	flat := percentiles{min: 5, p25: 5, p75: 5, max: 5}
	assert.Equal(t, 15.0, stabilityBand.score(5, flat))
	// a value below a flat band saturates at the sub-band top
	assert.Equal(t, 8.0, teamBand.score(4, flat))
}

func assertInBand(t *testing.T, v, lo, hi float64) {
	t.Helper()
	assert.False(t, math.IsNaN(v))
	assert.GreaterOrEqual(t, v, lo)
	assert.LessOrEqual(t, v, hi)
}

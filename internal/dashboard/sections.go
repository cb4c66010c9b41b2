package dashboard

import (
	"strconv"

	"github.com/ecodeclub/ekit/slice"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

const (
	distributionBins = 30
	scoreBins        = 20
	scoreSampleSize  = 100
	scoreTopGroups   = 15
)

// Salary describes annual income after outlier trimming.
type Salary struct {
	Stats      analysis.Stats          `json:"stats"`
	Histogram  []analysis.Bin          `json:"histogram"`
	ByIndustry []analysis.GroupSummary `json:"by_industry"`
}

// Salary trims income outliers and aggregates by industry.
func (v *View) Salary() (*Salary, error) {
	const section = "salary"
	if err := v.require(section, dataset.FieldAvgAnnualIncome); err != nil {
		return nil, err
	}
	rows, err := analysis.FilterOutliers(v.rows, dataset.FieldAvgAnnualIncome, v.p.Outliers)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, emptyErr(section)
	}
	vals := analysis.Values(rows, dataset.FieldAvgAnnualIncome)
	return &Salary{
		Stats:      analysis.Describe(vals),
		Histogram:  analysis.Histogram(vals, distributionBins),
		ByIndustry: analysis.GroupBy(rows, dataset.FieldIndustry, dataset.FieldAvgAnnualIncome, v.p.MinGroupSize, analysis.ByMeanDesc),
	}, nil
}

// Jobs describes incumbent headcounts per posting.
type Jobs struct {
	Stats       analysis.Stats          `json:"stats"`
	Histogram   []analysis.Bin          `json:"histogram"`
	IndustrySum []analysis.GroupSummary `json:"industry_sum"`
	IndustryAvg []analysis.GroupSummary `json:"industry_mean"`
}

// Jobs trims incumbent-count outliers and aggregates totals and means by industry.
func (v *View) Jobs() (*Jobs, error) {
	const section = "jobs"
	if err := v.require(section, dataset.FieldIncumbentCount); err != nil {
		return nil, err
	}
	rows, err := analysis.FilterOutliers(v.rows, dataset.FieldIncumbentCount, v.p.Outliers)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, emptyErr(section)
	}
	vals := analysis.Values(rows, dataset.FieldIncumbentCount)
	return &Jobs{
		Stats:       analysis.Describe(vals),
		Histogram:   analysis.Histogram(vals, distributionBins),
		IndustrySum: analysis.GroupBy(rows, dataset.FieldIndustry, dataset.FieldIncumbentCount, v.p.MinGroupSize, analysis.BySumDesc),
		IndustryAvg: analysis.GroupBy(rows, dataset.FieldIndustry, dataset.FieldIncumbentCount, v.p.MinGroupSize, analysis.ByMeanDesc),
	}, nil
}

// RatioPoint pairs company size with its DS ratio for scatter consumers.
type RatioPoint struct {
	Company   string  `json:"company"`
	Position  string  `json:"position"`
	Employees float64 `json:"employees"`
	Ratio     float64 `json:"ratio"`
}

// Ratio describes the DS headcount share of total employees, in percent.
type Ratio struct {
	Stats      analysis.Stats          `json:"stats"`
	Histogram  []analysis.Bin          `json:"histogram"`
	ByIndustry []analysis.GroupSummary `json:"by_industry"`
	Points     []RatioPoint            `json:"points"`
}

// Ratio keeps rows with positive counts and trims ratio outliers.
func (v *View) Ratio() (*Ratio, error) {
	const section = "ratio"
	if err := v.require(section, dataset.FieldIncumbentCount, dataset.FieldEmployeeCount); err != nil {
		return nil, err
	}
	// FilterOutliers on ds_ratio drops rows without both counts or with a zero share.
	rows, err := analysis.FilterOutliers(v.rows, dataset.FieldDSRatio, v.p.Outliers)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, emptyErr(section)
	}
	vals := analysis.Values(rows, dataset.FieldDSRatio)
	return &Ratio{
		Stats:      analysis.Describe(vals),
		Histogram:  analysis.Histogram(vals, distributionBins),
		ByIndustry: analysis.GroupBy(rows, dataset.FieldIndustry, dataset.FieldDSRatio, v.p.MinGroupSize, analysis.ByMeanDesc),
		Points: slice.Map(rows, func(i int, r dataset.Row) RatioPoint {
			return RatioPoint{Company: r.CompanyName, Position: r.PositionTitle, Employees: *r.EmployeeCount, Ratio: vals[i]}
		}),
	}, nil
}

// TopSummary averages the leading companies of the ranking.
type TopSummary struct {
	Count         int                `json:"count"`
	MeanComposite float64            `json:"mean_composite"`
	MeanIncome    float64            `json:"mean_income"`
	MeanEmployees float64            `json:"mean_employees"`
	MeanTeam      float64            `json:"mean_team"`
	MeanRatio     float64            `json:"mean_ratio"`
	MeanTenure    float64            `json:"mean_tenure_days"`
	MeanScores    analysis.SubScores `json:"mean_scores"`
}

// Scores summarizes company scoring.
type Scores struct {
	Total            int                     `json:"total"`
	Top              TopSummary              `json:"top"`
	Histogram        []analysis.Bin          `json:"histogram"`
	TopIndustries    []analysis.GroupSummary `json:"top_industries"`
	TopTiers         []analysis.GroupSummary `json:"top_tiers"`
	IndustryMeanRank []analysis.GroupSummary `json:"industry_mean_composite"`
}

// Scored runs the company scorer on the view's rows.
func (v *View) Scored() ([]analysis.ScoredRow, error) {
	const section = "scores"
	if err := v.require(section, dataset.FieldAvgAnnualIncome, dataset.FieldIncumbentCount,
		dataset.FieldEmployeeCount, dataset.FieldAvgTenureDays); err != nil {
		return nil, err
	}
	scored, err := analysis.ScoreCompanies(v.rows)
	if err != nil {
		return nil, err
	}
	return scored, nil
}

// Scores summarizes the first hundred ranked companies and the per-industry
// mean composite over all scored rows.
func (v *View) Scores() (*Scores, error) {
	scored, err := v.Scored()
	if err != nil {
		return nil, err
	}
	return SummarizeScores(scored), nil
}

// SummarizeScores builds the summary from rows in global rank order.
func SummarizeScores(scored []analysis.ScoredRow) *Scores {
	top := scored
	if len(top) > scoreSampleSize {
		top = top[:scoreSampleSize]
	}
	n := float64(len(top))
	var ts TopSummary
	ts.Count = len(top)
	for _, s := range top {
		ts.MeanComposite += s.Composite
		ts.MeanIncome += *s.AvgAnnualIncome
		ts.MeanEmployees += *s.EmployeeCount
		ts.MeanTeam += *s.IncumbentCount
		ts.MeanRatio += s.DSRatio
		ts.MeanTenure += *s.AvgTenureDays
		ts.MeanScores.Salary += s.Scores.Salary
		ts.MeanScores.Size += s.Scores.Size
		ts.MeanScores.Tier += s.Scores.Tier
		ts.MeanScores.Team += s.Scores.Team
		ts.MeanScores.Ratio += s.Scores.Ratio
		ts.MeanScores.Stability += s.Scores.Stability
	}
	if n > 0 {
		ts.MeanComposite /= n
		ts.MeanIncome /= n
		ts.MeanEmployees /= n
		ts.MeanTeam /= n
		ts.MeanRatio /= n
		ts.MeanTenure /= n
		ts.MeanScores = analysis.SubScores{
			Salary:    ts.MeanScores.Salary / n,
			Size:      ts.MeanScores.Size / n,
			Tier:      ts.MeanScores.Tier / n,
			Team:      ts.MeanScores.Team / n,
			Ratio:     ts.MeanScores.Ratio / n,
			Stability: ts.MeanScores.Stability / n,
		}
	}
	topRows := slice.Map(top, func(_ int, s analysis.ScoredRow) dataset.Row { return s.Row })
	composites := slice.Map(top, func(_ int, s analysis.ScoredRow) float64 { return s.Composite })
	return &Scores{
		Total:         len(scored),
		Top:           ts,
		Histogram:     analysis.Histogram(composites, scoreBins),
		TopIndustries: analysis.Head(analysis.Counts(topRows, dataset.FieldIndustry), scoreTopGroups),
		TopTiers:      analysis.Counts(topRows, dataset.FieldTier),
		IndustryMeanRank: analysis.Head(analysis.MeanBy(scored,
			func(s analysis.ScoredRow) string { return s.Industry },
			func(s analysis.ScoredRow) float64 { return s.Composite }), scoreTopGroups),
	}
}

// Ranking is one slice of the ranking table.
type Ranking struct {
	Title string               `json:"title"`
	View  string               `json:"view"`
	Rows  []analysis.ScoredRow `json:"rows"`
}

// Rankings scores the view's rows and returns the requested slice of the table.
func (v *View) Rankings(rv analysis.RankingView) (*Ranking, error) {
	scored, err := v.Scored()
	if err != nil {
		return nil, err
	}
	return &Ranking{
		Title: RankingTitle(rv, v.p.TopN),
		View:  rv.String(),
		Rows:  analysis.Top(scored, rv, v.p.TopN),
	}, nil
}

// RankingTitle names a ranking table; it doubles as the export file stem.
func RankingTitle(rv analysis.RankingView, n int) string {
	switch {
	case rv.Industry != "":
		return rv.Industry + "_top_" + strconv.Itoa(n)
	case rv.PerIndustry:
		return "per_industry_top_" + strconv.Itoa(n)
	}
	return "top_" + strconv.Itoa(n) + "_companies"
}

// Dimensions describes company size, tier mix and city mix of the DS rows.
type Dimensions struct {
	Size          analysis.Stats          `json:"size"`
	SizeHistogram []analysis.Bin          `json:"size_histogram"`
	Tiers         []analysis.GroupSummary `json:"tiers"`
	Cities        []analysis.GroupSummary `json:"cities"`
}

// Dimensions never trims outliers; size stats use rows with employee_count > 0.
func (v *View) Dimensions() (*Dimensions, error) {
	const section = "dimensions"
	if len(v.rows) == 0 {
		return nil, emptyErr(section)
	}
	d := &Dimensions{
		Tiers:  analysis.Counts(v.rows, dataset.FieldTier),
		Cities: analysis.Counts(v.rows, dataset.FieldCity),
	}
	if v.ds.Has(dataset.FieldEmployeeCount) {
		sizes := slice.FilterMap(v.rows, func(_ int, r dataset.Row) (float64, bool) {
			x, ok := r.Value(dataset.FieldEmployeeCount)
			return x, ok && x > 0
		})
		d.Size = analysis.Describe(sizes)
		d.SizeHistogram = analysis.Histogram(sizes, distributionBins)
	}
	return d, nil
}

package analysis

import (
	"sort"
	"strings"
)

// rank orders scored rows by composite descending, company name ascending and
// input order, then assigns global ranks 1..N and dense per-industry ranks.
func rank(scored []ScoredRow) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Composite != scored[j].Composite {
			return scored[i].Composite > scored[j].Composite
		}
		return scored[i].CompanyName < scored[j].CompanyName
	})

	type cursor struct {
		last float64
		rank int
	}
	byIndustry := make(map[string]*cursor)
	for i := range scored {
		s := &scored[i]
		s.GlobalRank = i + 1
		c, ok := byIndustry[s.Industry]
		if !ok {
			c = &cursor{}
			byIndustry[s.Industry] = c
		}
		if c.rank == 0 || s.Composite != c.last {
			c.rank++
			c.last = s.Composite
		}
		s.IndustryRank = c.rank
	}
}

// RankingView selects which slice of the ranking table to present.
type RankingView struct {
	// Industry restricts the table to one industry when set.
	Industry string
	// PerIndustry keeps rows with IndustryRank <= n, capped at 3n rows.
	PerIndustry bool
}

// ParseRankingView accepts "global", "industry" and "industry:<name>".
func ParseRankingView(s string) RankingView {
	s = strings.TrimSpace(s)
	if s == "industry" {
		return RankingView{PerIndustry: true}
	}
	if name, ok := strings.CutPrefix(s, "industry:"); ok && name != "" {
		return RankingView{Industry: name}
	}
	return RankingView{}
}

func (v RankingView) String() string {
	switch {
	case v.Industry != "":
		return "industry:" + v.Industry
	case v.PerIndustry:
		return "industry"
	}
	return "global"
}

// Top returns at most n rows of the ranking for the view. scored must be in
// global rank order as returned by ScoreCompanies.
func Top(scored []ScoredRow, v RankingView, n int) []ScoredRow {
	if n <= 0 {
		return nil
	}
	limit := n
	keep := func(ScoredRow) bool { return true }
	switch {
	case v.Industry != "":
		keep = func(s ScoredRow) bool { return s.Industry == v.Industry }
	case v.PerIndustry:
		limit = 3 * n
		keep = func(s ScoredRow) bool { return s.IndustryRank <= n }
	}
	out := make([]ScoredRow, 0, limit)
	for _, s := range scored {
		if len(out) == limit {
			break
		}
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

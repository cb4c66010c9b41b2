package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// Section holds either a computed value or the reason it is missing.
type Section[T any] struct {
	Value *T     `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
	err   error
}

func newSection[T any](v *T, err error) Section[T] {
	if err != nil {
		return Section[T]{Error: err.Error(), err: err}
	}
	return Section[T]{Value: v}
}

// Err returns the error that prevented the section from being computed.
func (s Section[T]) Err() error { return s.err }

// Report is a full dashboard evaluation.
type Report struct {
	ID          string              `json:"id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Params      Params              `json:"params"`
	Overview    Overview            `json:"overview"`
	Salary      Section[Salary]     `json:"salary"`
	Jobs        Section[Jobs]       `json:"jobs"`
	Ratio       Section[Ratio]      `json:"ratio"`
	Scores      Section[Scores]     `json:"scores"`
	Ranking     Section[Ranking]    `json:"ranking"`
	Dimensions  Section[Dimensions] `json:"dimensions"`
}

// Build evaluates every section concurrently. Section failures are recorded on
// the report; only context cancellation returns an error.
func Build(ctx context.Context, ds *dataset.Dataset, p Params) (*Report, error) {
	v := NewView(ds, p)
	r := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now(),
		Params:      v.Params(),
		Overview:    v.Overview(),
	}

	g, ctx := errgroup.WithContext(ctx)
	run := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}
	run(func() {
		s, err := v.Salary()
		r.Salary = newSection(s, err)
	})
	run(func() {
		j, err := v.Jobs()
		r.Jobs = newSection(j, err)
	})
	run(func() {
		x, err := v.Ratio()
		r.Ratio = newSection(x, err)
	})
	run(func() {
		d, err := v.Dimensions()
		r.Dimensions = newSection(d, err)
	})
	run(func() {
		scored, err := v.Scored()
		if err != nil {
			r.Scores = newSection[Scores](nil, err)
			r.Ranking = newSection[Ranking](nil, err)
			return
		}
		r.Scores = newSection(SummarizeScores(scored), nil)
		r.Ranking = newSection(&Ranking{
			Title: RankingTitle(v.p.View, v.p.TopN),
			View:  v.p.View.String(),
			Rows:  analysis.Top(scored, v.p.View, v.p.TopN),
		}, nil)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	return r, nil
}

// Failures maps each section that could not be computed to its reason.
func (r *Report) Failures() map[string]string {
	out := map[string]string{}
	add := func(name, msg string) {
		if msg != "" {
			out[name] = msg
		}
	}
	add("salary", r.Salary.Error)
	add("jobs", r.Jobs.Error)
	add("ratio", r.Ratio.Error)
	add("scores", r.Scores.Error)
	add("ranking", r.Ranking.Error)
	add("dimensions", r.Dimensions.Error)
	return out
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	o := r.Overview
	b.WriteString("[DATASET OVERVIEW]\n")
	if o.Dataset != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", o.Dataset))
	}
	b.WriteString(fmt.Sprintf("Rows: %d (DS postings %d, %.1f%%)\n", o.TotalRows, o.DSRows, o.DSShare))
	b.WriteString(fmt.Sprintf("Selected: %d (%.1f%% of all), DS postings %d (%.1f%%)\n",
		o.SelectedRows, o.SelectedPct, o.SelectedDSRows, o.SelectedDSPct))
	if r.Params.Outliers.Enabled {
		b.WriteString(fmt.Sprintf("Outliers: %s x%.2g\n", r.Params.Outliers.Method, r.Params.Outliers.Multiplier))
	} else {
		b.WriteString("Outliers: off\n")
	}

	b.WriteString("\n[SALARY]\n")
	writeSection(&b, r.Salary, func(s *Salary) {
		writeStats(&b, s.Stats, "%.0f")
		writeGroups(&b, "by industry (mean)", s.ByIndustry, 10, func(g analysis.GroupSummary) string {
			return fmt.Sprintf("%.0f (n=%d)", g.Mean, g.Count)
		})
	})

	b.WriteString("\n[JOBS]\n")
	writeSection(&b, r.Jobs, func(j *Jobs) {
		b.WriteString(fmt.Sprintf("- total incumbents: %.0f\n", j.Stats.Sum))
		writeStats(&b, j.Stats, "%.1f")
		writeGroups(&b, "by industry (total)", j.IndustrySum, 10, func(g analysis.GroupSummary) string {
			return fmt.Sprintf("%.0f (n=%d)", g.Sum, g.Count)
		})
	})

	b.WriteString("\n[DS RATIO]\n")
	writeSection(&b, r.Ratio, func(x *Ratio) {
		writeStats(&b, x.Stats, "%.3f%%")
		writeGroups(&b, "by industry (mean %)", x.ByIndustry, 10, func(g analysis.GroupSummary) string {
			return fmt.Sprintf("%.3f (n=%d)", g.Mean, g.Count)
		})
	})

	b.WriteString("\n[COMPANY SCORES]\n")
	writeSection(&b, r.Scores, func(s *Scores) {
		t := s.Top
		b.WriteString(fmt.Sprintf("- scored companies: %d\n", s.Total))
		b.WriteString(fmt.Sprintf("- top %d: composite %.1f, income %.1f, size %.0f, team %.0f, ratio %.3f%%, tenure %.0f days\n",
			t.Count, t.MeanComposite, t.MeanIncome, t.MeanEmployees, t.MeanTeam, t.MeanRatio, t.MeanTenure))
		m := t.MeanScores
		b.WriteString(fmt.Sprintf("- top %d sub-scores: salary %.2f, size %.2f, tier %.2f, team %.2f, ratio %.2f, stability %.2f\n",
			t.Count, m.Salary, m.Size, m.Tier, m.Team, m.Ratio, m.Stability))
		writeGroups(&b, "industries with highest mean composite", s.IndustryMeanRank, 10, func(g analysis.GroupSummary) string {
			return fmt.Sprintf("%.2f (n=%d)", g.Mean, g.Count)
		})
	})

	b.WriteString("\n[RANKING]\n")
	writeSection(&b, r.Ranking, func(rk *Ranking) {
		b.WriteString(fmt.Sprintf("%s\n", rk.Title))
		b.WriteString("| # | industry # | company | industry | tier | income | composite |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
		for _, s := range rk.Rows {
			b.WriteString(fmt.Sprintf("| %d | %d | %s | %s | %s | %.0f | %.2f |\n",
				s.GlobalRank, s.IndustryRank, safeVal(s.CompanyName), safeVal(s.Industry), tierLabel(s.Tier),
				*s.AvgAnnualIncome, s.Composite))
		}
	})

	b.WriteString("\n[OTHER DIMENSIONS]\n")
	writeSection(&b, r.Dimensions, func(d *Dimensions) {
		if d.Size.Count > 0 {
			b.WriteString(fmt.Sprintf("- company size: n=%d, mean %.0f, median %.0f\n", d.Size.Count, d.Size.Mean, d.Size.Median))
		}
		writeGroups(&b, "tiers", d.Tiers, 0, func(g analysis.GroupSummary) string { return fmt.Sprintf("%d", g.Count) })
		writeGroups(&b, "cities", d.Cities, 10, func(g analysis.GroupSummary) string { return fmt.Sprintf("%d", g.Count) })
	})
	return b.String()
}

func writeSection[T any](b *strings.Builder, s Section[T], fn func(*T)) {
	if s.Value == nil {
		b.WriteString("- no data: ")
		b.WriteString(s.Error)
		b.WriteString("\n")
		return
	}
	fn(s.Value)
}

func writeStats(b *strings.Builder, st analysis.Stats, format string) {
	f := func(x float64) string { return fmt.Sprintf(format, x) }
	b.WriteString(fmt.Sprintf("- n=%d, mean %s, median %s, std %s, min %s, max %s\n",
		st.Count, f(st.Mean), f(st.Median), f(st.Std), f(st.Min), f(st.Max)))
}

func writeGroups(b *strings.Builder, title string, gs []analysis.GroupSummary, limit int, val func(analysis.GroupSummary) string) {
	if len(gs) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("- %s:\n", title))
	for _, g := range analysis.Head(gs, limit) {
		b.WriteString(fmt.Sprintf("  • %s: %s\n", safeName(g.Key), val(g)))
	}
}

func tierLabel(t dataset.Tier) string {
	if t == dataset.TierMissing {
		return "-"
	}
	return string(t)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unknown)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// Table renders the ranking with every sub-score.
func (rk *Ranking) Table() string {
	var b strings.Builder
	b.WriteString(rk.Title + "\n")
	b.WriteString("| # | industry # | company | industry | composite | salary | size | tier | team | ratio | stability |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, s := range rk.Rows {
		sc := s.Scores
		b.WriteString(fmt.Sprintf("| %d | %d | %s | %s | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
			s.GlobalRank, s.IndustryRank, safeVal(s.CompanyName), safeVal(s.Industry), s.Composite,
			sc.Salary, sc.Size, sc.Tier, sc.Team, sc.Ratio, sc.Stability))
	}
	return b.String()
}

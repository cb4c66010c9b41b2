package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dataset"
	"github.com/KaramelBytes/dsdash/internal/utils"
)

// BOM lets spreadsheet tools detect UTF-8.
const BOM = "\ufeff"

// TimestampLayout formats the file name suffix.
const TimestampLayout = "20060102_150405"

// RankingHeader lists the ranking table columns.
var RankingHeader = []string{
	"global_rank", "industry_rank", "company_name", "industry", "tier",
	"avg_annual_income", "employee_count", "incumbent_count", "ds_ratio_pct",
	"salary_score", "size_score", "tier_score", "team_score", "ratio_score", "stability_score",
	"composite_score",
}

// PostingHeader lists the posting table columns in canonical order.
var PostingHeader = []string{
	string(dataset.FieldIndustry), string(dataset.FieldPositionTitle), string(dataset.FieldCompanyName),
	string(dataset.FieldCity), string(dataset.FieldTier), string(dataset.FieldEmployeeCount),
	string(dataset.FieldAvgAnnualIncome), string(dataset.FieldIncumbentCount), string(dataset.FieldAvgTenureDays),
	string(dataset.FieldDSRatio),
}

// WriteRankings writes the ranking table as CSV, BOM first.
func WriteRankings(w io.Writer, rows []analysis.ScoredRow) error {
	return writeCSV(w, RankingHeader, len(rows), func(i int) []string {
		s := rows[i]
		return []string{
			strconv.Itoa(s.GlobalRank),
			strconv.Itoa(s.IndustryRank),
			s.CompanyName,
			s.Industry,
			string(s.Tier),
			fmtInt(*s.AvgAnnualIncome),
			fmtInt(*s.EmployeeCount),
			fmtInt(*s.IncumbentCount),
			fmtFixed(s.DSRatio, 3),
			fmtFixed(s.Scores.Salary, 2),
			fmtFixed(s.Scores.Size, 2),
			fmtFixed(s.Scores.Tier, 2),
			fmtFixed(s.Scores.Team, 2),
			fmtFixed(s.Scores.Ratio, 2),
			fmtFixed(s.Scores.Stability, 2),
			fmtFixed(s.Composite, 2),
		}
	})
}

// WritePostings writes posting rows as CSV, BOM first. Missing numbers are empty cells.
func WritePostings(w io.Writer, rows []dataset.Row) error {
	return writeCSV(w, PostingHeader, len(rows), func(i int) []string {
		r := rows[i]
		rec := []string{r.Industry, r.PositionTitle, r.CompanyName, r.City, string(r.Tier)}
		for _, f := range dataset.NumericFields {
			if v, ok := r.Value(f); ok {
				rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		return rec
	})
}

func writeCSV(w io.Writer, header []string, n int, record func(i int) []string) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(record(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtInt(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func fmtFixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// FileName returns <title>_<YYYYMMDD_HHMMSS>.csv with path separators removed from title.
func FileName(title string, at time.Time) string {
	title = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if title == "" {
		title = "export"
	}
	return fmt.Sprintf("%s_%s.csv", title, at.Format(TimestampLayout))
}

// SaveRankings writes the ranking table into dir and returns the file path.
func SaveRankings(dir, title string, rows []analysis.ScoredRow, at time.Time) (string, error) {
	var buf bytes.Buffer
	if err := WriteRankings(&buf, rows); err != nil {
		return "", err
	}
	return save(dir, title, buf.Bytes(), at)
}

// SavePostings writes posting rows into dir and returns the file path.
func SavePostings(dir, title string, rows []dataset.Row, at time.Time) (string, error) {
	var buf bytes.Buffer
	if err := WritePostings(&buf, rows); err != nil {
		return "", err
	}
	return save(dir, title, buf.Bytes(), at)
}

func save(dir, title string, data []byte, at time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(title, at))
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}
	return path, nil
}

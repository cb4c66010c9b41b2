package analysis

import (
	"strings"

	"github.com/ecodeclub/ekit/slice"

	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// DefaultKeywords are the data-analyst title terms of the source dataset:
// data analysis, data mining, data science, business analysis, BI, data operations, data engineer.
var DefaultKeywords = []string{"数据分析", "数据挖掘", "数据科学", "商业分析", "BI", "数据运营", "数据工程师"}

// EnglishKeywords cover the same roles for English-language titles.
var EnglishKeywords = []string{"data analy", "data mining", "data scien", "business analy", "BI", "data operations", "data engineer"}

// FilterByKeywords keeps rows whose position title contains any keyword,
// compared case-insensitively as substrings. Blank keywords are ignored;
// with no usable keyword every row is kept.
func FilterByKeywords(rows []dataset.Row, keywords []string) []dataset.Row {
	needles := slice.FilterMap(keywords, func(_ int, k string) (string, bool) {
		k = strings.ToLower(strings.TrimSpace(k))
		return k, k != ""
	})
	if len(needles) == 0 {
		out := make([]dataset.Row, len(rows))
		copy(out, rows)
		return out
	}
	return slice.FilterMap(rows, func(_ int, r dataset.Row) (dataset.Row, bool) {
		title := strings.ToLower(r.PositionTitle)
		for _, n := range needles {
			if strings.Contains(title, n) {
				return r, true
			}
		}
		return r, false
	})
}

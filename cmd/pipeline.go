package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dashboard"
	"github.com/KaramelBytes/dsdash/internal/dataset"
	"github.com/KaramelBytes/dsdash/internal/store"
)

// pipelineFlags are the ingestion and filter flags shared by the data commands.
type pipelineFlags struct {
	fromDB     bool
	delimiter  string
	encoding   string
	sheetName  string
	sheetIndex int

	outliers   bool
	method     string
	multiplier float64
	keywords   []string
	industries []string
	cities     []string
	tiers      []string
	minGroup   int
	topN       int
}

func addSourceFlags(cmd *cobra.Command, pf *pipelineFlags) {
	f := cmd.Flags()
	f.BoolVar(&pf.fromDB, "from-db", false, "read postings from the sqlite store instead of a file")
	f.StringVar(&pf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (default by extension)")
	f.StringVar(&pf.encoding, "encoding", "", "source encoding (default: try utf-8, gbk, gb2312, utf-8-sig, latin1)")
	f.StringVar(&pf.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	f.IntVar(&pf.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func addPipelineFlags(cmd *cobra.Command, pf *pipelineFlags) {
	addSourceFlags(cmd, pf)
	f := cmd.Flags()
	f.BoolVar(&pf.outliers, "outliers", true, "trim statistical outliers per metric")
	f.StringVar(&pf.method, "outlier-method", "iqr", "outlier method: iqr | zscore")
	f.Float64Var(&pf.multiplier, "outlier-multiplier", analysis.DefaultMultiplier, "IQR whisker or |z| threshold")
	f.StringSliceVar(&pf.keywords, "keyword", nil, "position title keyword (repeatable; overrides configured keywords)")
	f.StringSliceVar(&pf.industries, "industry", nil, "keep only these industries (repeatable)")
	f.StringSliceVar(&pf.cities, "city", nil, "keep only these cities (repeatable)")
	f.StringSliceVar(&pf.tiers, "tier", nil, "keep only these tiers: head | waist | tail (repeatable)")
	f.IntVar(&pf.minGroup, "min-group", 0, "minimum rows per industry group (default from config)")
	f.IntVar(&pf.topN, "top", 0, "rows per ranking (default from config)")
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

func (pf *pipelineFlags) readOptions() (dataset.ReadOptions, error) {
	c, err := config()
	if err != nil {
		return dataset.ReadOptions{}, err
	}
	opt := c.ReadOptions()
	d, err := parseDelimiter(pf.delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	if e := strings.TrimSpace(pf.encoding); e != "" {
		opt.Encodings = []string{e}
	}
	opt.SheetName = pf.sheetName
	if pf.sheetIndex > 0 {
		opt.SheetIndex = pf.sheetIndex
	}
	return opt, nil
}

// load reads the dataset from the store (--from-db), the file argument, or the configured data_file.
func (pf *pipelineFlags) load(ctx context.Context, args []string) (*dataset.Dataset, error) {
	c, err := config()
	if err != nil {
		return nil, err
	}
	if pf.fromDB {
		st, err := store.Open(c.DBPath)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.Load(ctx)
	}
	path := c.DataFile
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, fmt.Errorf("no data file given and data_file is not configured")
	}
	opt, err := pf.readOptions()
	if err != nil {
		return nil, err
	}
	return dataset.ReadFile(path, opt)
}

// params merges configuration with the flags the user actually set.
func (pf *pipelineFlags) params(cmd *cobra.Command) (dashboard.Params, error) {
	c, err := config()
	if err != nil {
		return dashboard.Params{}, err
	}
	p := dashboard.DefaultParams()
	if len(c.Keywords) > 0 {
		p.Keywords = c.Keywords
	}
	if p.Outliers, err = c.Outliers(); err != nil {
		return p, err
	}
	if c.MinGroupSize > 0 {
		p.MinGroupSize = c.MinGroupSize
	}
	if c.TopN > 0 {
		p.TopN = c.TopN
	}

	f := cmd.Flags()
	if f.Changed("outliers") {
		p.Outliers.Enabled = pf.outliers
	}
	if f.Changed("outlier-method") {
		m, err := analysis.ParseMethod(pf.method)
		if err != nil {
			return p, err
		}
		p.Outliers.Method = m
	}
	if f.Changed("outlier-multiplier") {
		if pf.multiplier <= 0 {
			return p, fmt.Errorf("--outlier-multiplier must be > 0")
		}
		p.Outliers.Multiplier = pf.multiplier
	}
	if len(pf.keywords) > 0 {
		p.Keywords = pf.keywords
	}
	if pf.minGroup > 0 {
		p.MinGroupSize = pf.minGroup
	}
	if pf.topN > 0 {
		p.TopN = pf.topN
	}
	p.Selection.Industries = pf.industries
	p.Selection.Cities = pf.cities
	for _, t := range pf.tiers {
		tier := dataset.ParseTier(t)
		if tier == dataset.TierMissing {
			return p, fmt.Errorf("invalid --tier: %s (use head|waist|tail)", t)
		}
		p.Selection.Tiers = append(p.Selection.Tiers, tier)
	}
	return p, nil
}

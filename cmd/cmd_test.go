package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const postingsCSV = `行业,岗位名称,公司名称,城市,头腰尾,员工人数,平均年收入,在职人数,平均在职天数
互联网,数据分析师,甲科技,北京,头部,5000,300000,40,700
互联网,BI工程师,乙网络,上海,腰部,1200,200000,10,400
金融,数据科学家,丙银行,深圳,腰部,2500,400000,8,650
金融,商业分析师,丁证券,深圳,尾部,300,150000,3,200
金融,柜员,戊银行,深圳,尾部,3000,60000,200,1000
教育,数据运营,己教育,杭州,尾部,150,90000,2,120
`

// resetFlags restores defaults so flag values do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func setup(t *testing.T) (home, csvPath string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	csvPath = filepath.Join(home, "postings.csv")
	if err := os.WriteFile(csvPath, []byte(postingsCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return home, csvPath
}

func TestAnalyze_PrintsMarkdownReport(t *testing.T) {
	_, csvPath := setup(t)
	out, err := runCmd(t, "analyze", csvPath, "--outliers=false")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	for _, want := range []string{"[DATASET OVERVIEW]", "Rows: 6 (DS postings 5", "Outliers: off", "[RANKING]", "丙银行"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "戊银行") {
		t.Fatalf("non-DS posting leaked into the report:\n%s", out)
	}
}

func TestAnalyze_WritesJSONToFile(t *testing.T) {
	home, csvPath := setup(t)
	outPath := filepath.Join(home, "out", "report.json")
	if _, err := runCmd(t, "analyze", csvPath, "--format", "json", "-o", outPath); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), `"overview"`) || !strings.Contains(string(b), `"ds_rows": 5`) {
		t.Fatalf("unexpected json report:\n%s", b)
	}
}

func TestScore_SingleIndustry(t *testing.T) {
	_, csvPath := setup(t)
	out, err := runCmd(t, "score", csvPath, "--view", "industry:金融", "--top", "1")
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "金融_top_1" {
		t.Fatalf("unexpected title %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("expected title, header, separator and one row; got:\n%s", out)
	}
	if strings.Contains(out, "甲科技") {
		t.Fatalf("other industry leaked into the ranking:\n%s", out)
	}
}

func TestScore_RejectsBadFlags(t *testing.T) {
	_, csvPath := setup(t)
	if _, err := runCmd(t, "score", csvPath, "--outlier-method", "mad"); err == nil || !strings.Contains(err.Error(), "unknown outlier method") {
		t.Fatalf("expected unknown method error, got %v", err)
	}
	if _, err := runCmd(t, "score", csvPath, "--tier", "middle"); err == nil || !strings.Contains(err.Error(), "invalid --tier") {
		t.Fatalf("expected tier error, got %v", err)
	}
	if _, err := runCmd(t, "score", csvPath, "--delimiter", "#"); err == nil {
		t.Fatalf("expected delimiter error")
	}
}

func TestScore_NoMatchingKeyword(t *testing.T) {
	_, csvPath := setup(t)
	_, err := runCmd(t, "score", csvPath, "--keyword", "chef")
	if err == nil || !strings.Contains(err.Error(), "no valid data") {
		t.Fatalf("expected empty-after-filter error, got %v", err)
	}
}

func TestExport_Postings(t *testing.T) {
	home, csvPath := setup(t)
	dir := filepath.Join(home, "exports")
	out, err := runCmd(t, "export", csvPath, "--kind", "postings", "--dir", dir, "--city", "深圳")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "✓ Exported postings") {
		t.Fatalf("unexpected output %q", out)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "ds_postings_*.csv"))
	if len(matches) != 1 {
		t.Fatalf("expected one export file, got %v", matches)
	}
	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("\ufeff")) {
		t.Fatalf("export is missing the UTF-8 BOM")
	}
	// header plus the two Shenzhen DS postings
	if n := strings.Count(strings.TrimSpace(string(b)), "\n"); n != 2 {
		t.Fatalf("expected 3 lines, got %d:\n%s", n+1, b)
	}
}

func TestExport_RejectsUnknownKind(t *testing.T) {
	_, csvPath := setup(t)
	if _, err := runCmd(t, "export", csvPath, "--kind", "charts"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestImportThenScoreFromDB(t *testing.T) {
	home, csvPath := setup(t)
	db := filepath.Join(home, "store", "postings.db")
	out, err := runCmd(t, "import", csvPath, "--db", db)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "6 rows") {
		t.Fatalf("unexpected import output %q", out)
	}
	out, err = runCmd(t, "score", "--from-db", "--db", db, "--outliers=false")
	if err != nil {
		t.Fatalf("score from db failed: %v", err)
	}
	if !strings.Contains(out, "丙银行") {
		t.Fatalf("expected stored postings in ranking:\n%s", out)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	setup(t)
	if _, err := runCmd(t, "config", "set", "top_n", "7"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	out, err := runCmd(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "top_n: 7") {
		t.Fatalf("expected saved top_n in output:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "no_such_key", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

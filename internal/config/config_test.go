package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/dsdash/internal/analysis"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TopN != 20 || c.MinGroupSize != 3 || c.MaxIndustries != 10 || c.MaxCities != 10 {
		t.Fatalf("unexpected limits: %+v", c)
	}
	if !c.OutlierEnabled || c.OutlierMethod != "iqr" || c.OutlierMultiplier != 1.5 {
		t.Fatalf("unexpected outlier defaults: %+v", c)
	}
	if c.DBPath != filepath.Join(home, ".dsdash", "postings.db") {
		t.Fatalf("db path = %s", c.DBPath)
	}
	if len(c.Keywords) != len(analysis.DefaultKeywords) {
		t.Fatalf("keywords = %v", c.Keywords)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "config.yaml")
	body := "outlier_method: zscore\ntop_n: 5\nkeywords:\n  - data analy\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DSDASH_LISTEN_ADDR", "0.0.0.0:9000")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TopN != 5 || c.ListenAddr != "0.0.0.0:9000" {
		t.Fatalf("unexpected: %+v", c)
	}
	opt, err := c.Outliers()
	if err != nil || opt.Method != analysis.MethodZScore {
		t.Fatalf("outliers = %+v, %v", opt, err)
	}
	if len(c.Keywords) != 1 || c.Keywords[0] != "data analy" {
		t.Fatalf("keywords = %v", c.Keywords)
	}
}

func TestSetAndSave(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for k, v := range map[string]string{
		"top_n":              "50",
		"outlier_enabled":    "false",
		"outlier_multiplier": "3",
		"keywords":           "BI, 数据分析 ,",
	} {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if err := c.Set("outlier_method", "mad"); err == nil {
		t.Fatalf("expected error for unknown method")
	}
	if err := c.Set("nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}

	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(c, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.TopN != 50 || back.OutlierEnabled || back.OutlierMultiplier != 3 {
		t.Fatalf("unexpected reload: %+v", back)
	}
	if len(back.Keywords) != 2 || back.Keywords[1] != "数据分析" {
		t.Fatalf("keywords = %v", back.Keywords)
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// Global configuration structure.
type Global struct {
	DataFile  string   `mapstructure:"data_file" yaml:"data_file"`
	Encodings []string `mapstructure:"encodings" yaml:"encodings"`
	Keywords  []string `mapstructure:"keywords" yaml:"keywords"`

	// Outlier trimming
	OutlierEnabled    bool    `mapstructure:"outlier_enabled" yaml:"outlier_enabled"`
	OutlierMethod     string  `mapstructure:"outlier_method" yaml:"outlier_method"`
	OutlierMultiplier float64 `mapstructure:"outlier_multiplier" yaml:"outlier_multiplier"`

	// Presentation limits
	TopN          int `mapstructure:"top_n" yaml:"top_n"`
	MinGroupSize  int `mapstructure:"min_group_size" yaml:"min_group_size"`
	MaxIndustries int `mapstructure:"max_industries" yaml:"max_industries"`
	MaxCities     int `mapstructure:"max_cities" yaml:"max_cities"`

	DBPath     string `mapstructure:"db_path" yaml:"db_path"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	ExportDir  string `mapstructure:"export_dir" yaml:"export_dir"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"data_file", "encodings", "keywords",
	"outlier_enabled", "outlier_method", "outlier_multiplier",
	"top_n", "min_group_size", "max_industries", "max_cities",
	"db_path", "listen_addr", "export_dir",
}

// Dir returns ~/.dsdash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".dsdash"), nil
}

// Outliers converts the outlier settings into filter options.
func (c *Global) Outliers() (analysis.OutlierOptions, error) {
	m, err := analysis.ParseMethod(c.OutlierMethod)
	if err != nil {
		return analysis.OutlierOptions{}, err
	}
	return analysis.OutlierOptions{Enabled: c.OutlierEnabled, Method: m, Multiplier: c.OutlierMultiplier}, nil
}

// ReadOptions builds ingestion options from the configured encodings.
func (c *Global) ReadOptions() dataset.ReadOptions {
	opt := dataset.DefaultReadOptions()
	if len(c.Encodings) > 0 {
		opt.Encodings = c.Encodings
	}
	return opt
}

// Set assigns a single key from its string form, as typed on the command line.
// List values are comma-separated.
func (c *Global) Set(key, value string) error {
	v := viper.New()
	v.Set(key, value)
	switch key {
	case "data_file":
		c.DataFile = value
	case "encodings":
		c.Encodings = splitList(value)
	case "keywords":
		c.Keywords = splitList(value)
	case "outlier_enabled":
		c.OutlierEnabled = v.GetBool(key)
	case "outlier_method":
		m, err := analysis.ParseMethod(value)
		if err != nil {
			return err
		}
		c.OutlierMethod = string(m)
	case "outlier_multiplier":
		f := v.GetFloat64(key)
		if f <= 0 {
			return fmt.Errorf("outlier_multiplier must be > 0, got %q", value)
		}
		c.OutlierMultiplier = f
	case "top_n":
		c.TopN = v.GetInt(key)
	case "min_group_size":
		c.MinGroupSize = v.GetInt(key)
	case "max_industries":
		c.MaxIndustries = v.GetInt(key)
	case "max_cities":
		c.MaxCities = v.GetInt(key)
	case "db_path":
		c.DBPath = value
	case "listen_addr":
		c.ListenAddr = value
	case "export_dir":
		c.ExportDir = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dsdash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DSDASH")
	v.AutomaticEnv()

	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v.SetDefault("data_file", "DS_raw.csv")
	v.SetDefault("encodings", dataset.DefaultEncodings)
	v.SetDefault("keywords", analysis.DefaultKeywords)
	v.SetDefault("outlier_enabled", true)
	v.SetDefault("outlier_method", string(analysis.MethodIQR))
	v.SetDefault("outlier_multiplier", analysis.DefaultMultiplier)
	v.SetDefault("top_n", 20)
	v.SetDefault("min_group_size", 3)
	v.SetDefault("max_industries", 10)
	v.SetDefault("max_cities", 10)
	v.SetDefault("db_path", filepath.Join(dir, "postings.db"))
	v.SetDefault("listen_addr", "127.0.0.1:8501")
	v.SetDefault("export_dir", ".")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.OutlierMultiplier <= 0 {
		c.OutlierMultiplier = analysis.DefaultMultiplier
	}
	return &c, nil
}

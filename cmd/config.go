package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/dsdash/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set dsdash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "data_file: %s\n", c.DataFile)
		fmt.Fprintf(w, "encodings: %s\n", strings.Join(c.Encodings, ", "))
		fmt.Fprintf(w, "keywords: %s\n", strings.Join(c.Keywords, ", "))
		fmt.Fprintf(w, "outlier_enabled: %t\n", c.OutlierEnabled)
		fmt.Fprintf(w, "outlier_method: %s\n", c.OutlierMethod)
		fmt.Fprintf(w, "outlier_multiplier: %.3f\n", c.OutlierMultiplier)
		fmt.Fprintf(w, "top_n: %d\n", c.TopN)
		fmt.Fprintf(w, "min_group_size: %d\n", c.MinGroupSize)
		fmt.Fprintf(w, "max_industries: %d\n", c.MaxIndustries)
		fmt.Fprintf(w, "max_cities: %d\n", c.MaxCities)
		fmt.Fprintf(w, "db_path: %s\n", c.DBPath)
		fmt.Fprintf(w, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(w, "export_dir: %s\n", c.ExportDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long:  "Set a config value and save to disk. Keys: " + strings.Join(cfgpkg.Keys, ", ") + ". List values are comma-separated.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

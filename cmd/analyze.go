package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dsdash/internal/dashboard"
	"github.com/KaramelBytes/dsdash/internal/utils"
)

var (
	anaPipe       pipelineFlags
	anaOutputPath string
	anaFormat     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Produce the full dashboard report for a CSV/TSV/XLSX file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(anaFormat))
		if format != "markdown" && format != "md" && format != "json" {
			return fmt.Errorf("unsupported --format: %s (use markdown|json)", anaFormat)
		}
		log := newLogger()
		defer func() { _ = log.Sync() }()

		p, err := anaPipe.params(cmd)
		if err != nil {
			return err
		}
		ds, err := anaPipe.load(cmd.Context(), args)
		if err != nil {
			return err
		}
		log.Debug("dataset loaded", zap.String("name", ds.Name), zap.Int("rows", ds.Len()))

		rep, err := dashboard.Build(cmd.Context(), ds, p)
		if err != nil {
			return err
		}
		for name, msg := range rep.Failures() {
			log.Debug("section unavailable", zap.String("section", name), zap.String("reason", msg))
		}

		var out []byte
		if format == "json" {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			out = []byte(rep.Markdown())
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote report to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addPipelineFlags(analyzeCmd, &anaPipe)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "markdown", "report format: markdown | json")
}

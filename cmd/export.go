package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dashboard"
	"github.com/KaramelBytes/dsdash/internal/export"
)

var (
	expPipe pipelineFlags
	expKind string
	expView string
	expDir  string
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the ranking table or the filtered postings to CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := strings.ToLower(strings.TrimSpace(expKind))
		if kind != "rankings" && kind != "postings" {
			return fmt.Errorf("unsupported --kind: %s (use rankings|postings)", expKind)
		}
		c, err := config()
		if err != nil {
			return err
		}
		dir := c.ExportDir
		if cmd.Flags().Changed("dir") {
			dir = expDir
		}
		p, err := expPipe.params(cmd)
		if err != nil {
			return err
		}
		p.View = analysis.ParseRankingView(expView)
		ds, err := expPipe.load(cmd.Context(), args)
		if err != nil {
			return err
		}
		v := dashboard.NewView(ds, p)

		var path string
		now := time.Now()
		switch kind {
		case "rankings":
			rk, err := v.Rankings(p.View)
			if err != nil {
				return err
			}
			path, err = export.SaveRankings(dir, rk.Title, rk.Rows, now)
			if err != nil {
				return err
			}
		case "postings":
			if len(v.Rows()) == 0 {
				return fmt.Errorf("postings: %w", analysis.ErrEmptyAfterFilter)
			}
			path, err = export.SavePostings(dir, "ds_postings", v.Rows(), now)
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s to %s\n", kind, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addPipelineFlags(exportCmd, &expPipe)
	exportCmd.Flags().StringVar(&expKind, "kind", "rankings", "what to export: rankings | postings")
	exportCmd.Flags().StringVar(&expView, "view", "global", "ranking view: global | industry | industry:<name>")
	exportCmd.Flags().StringVar(&expDir, "dir", "", "output directory (default export_dir)")
}

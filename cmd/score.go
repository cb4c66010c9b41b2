package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dashboard"
)

var (
	scorePipe pipelineFlags
	scoreView string
)

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score companies and print the ranking table",
	Long: `Score every valid data-analyst posting (salary, size, tier, team, DS ratio, stability)
and print the top N. --view selects the table: global, industry (top N within each industry)
or industry:<name>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := scorePipe.params(cmd)
		if err != nil {
			return err
		}
		p.View = analysis.ParseRankingView(scoreView)
		ds, err := scorePipe.load(cmd.Context(), args)
		if err != nil {
			return err
		}
		rk, err := dashboard.NewView(ds, p).Rankings(p.View)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rk.Table())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	addPipelineFlags(scoreCmd, &scorePipe)
	scoreCmd.Flags().StringVar(&scoreView, "view", "global", "ranking view: global | industry | industry:<name>")
}

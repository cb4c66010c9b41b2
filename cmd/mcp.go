package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dsdash/internal/mcptool"
)

// Version is reported to MCP clients.
var Version = "dev"

var mcpPipe pipelineFlags

var mcpCmd = &cobra.Command{
	Use:   "mcp [file]",
	Short: "Serve the dashboard tools over MCP (stdio)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := mcpPipe.params(cmd)
		if err != nil {
			return err
		}
		ds, err := mcpPipe.load(cmd.Context(), args)
		if err != nil {
			return err
		}
		return mcptool.ServeStdio(mcptool.NewServer(ds, p, Version))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	addPipelineFlags(mcpCmd, &mcpPipe)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dsdash/internal/store"
)

var impPipe pipelineFlags

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Load a posting file into the sqlite store, replacing the previous import",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if impPipe.fromDB {
			return fmt.Errorf("--from-db cannot be used with import")
		}
		c, err := config()
		if err != nil {
			return err
		}
		ds, err := impPipe.load(cmd.Context(), args)
		if err != nil {
			return err
		}
		st, err := store.Open(c.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.ReplaceAll(cmd.Context(), ds); err != nil {
			return err
		}
		desc, err := st.Describe(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %s into %s\n", desc, c.DBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	addSourceFlags(importCmd, &impPipe)
}

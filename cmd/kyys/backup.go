package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import the whole library as JSON",
}

var backupExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a backup, to stdout when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var w io.Writer = os.Stdout
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := ctrl.Store.Export(w); err != nil {
			return err
		}
		if len(args) == 1 {
			fmt.Fprintf(os.Stderr, "💾 Backup written to %s\n", args[0])
		}
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Restore a backup, replacing the collections it contains",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open backup: %w", err)
		}
		defer f.Close()
		if err := ctrl.Store.Import(f); err != nil {
			return err
		}
		stats := ctrl.Store.Stats()
		fmt.Printf("✅ Restored %d series and %d chapters\n", stats.Series, stats.Chapters)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}

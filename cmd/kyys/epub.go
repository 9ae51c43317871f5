package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var epubCmd = &cobra.Command{
	Use:   "epub [slug]",
	Short: "Generate an EPUB from the chapters of a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := ctrl.ExportEPub(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("EPUB generation failed: %w", err)
		}
		fmt.Printf("📖 EPUB created: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(epubCmd)
}

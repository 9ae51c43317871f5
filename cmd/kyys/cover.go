package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var coverCmd = &cobra.Command{
	Use:   "cover [slug] [image file]",
	Short: "Set the cover image of a series",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		series, err := findSeries(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open cover: %w", err)
		}
		defer f.Close()

		ref, err := ctrl.Store.StoreCover(context.Background(), series.ID, f)
		if err != nil {
			return err
		}
		if key, ok := ref.BlobKey(); ok {
			fmt.Printf("✅ Cover of '%s' stored as %s\n", series.Title, key)
		} else {
			fmt.Printf("✅ Cover of '%s' stored inline\n", series.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(coverCmd)
}

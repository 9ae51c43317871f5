package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/spf13/cobra"
)

var chapterCmd = &cobra.Command{
	Use:   "chapter",
	Short: "Add or delete chapters",
}

var chapterAddCmd = &cobra.Command{
	Use:   "add [slug] [page files...]",
	Short: "Add a chapter to a series",
	Long:  "Add a chapter to a series. Page images are stored in the order given.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		series, err := findSeries(args[0])
		if err != nil {
			return err
		}
		number, _ := cmd.Flags().GetFloat64("number")
		name, _ := cmd.Flags().GetString("name")
		lang, _ := cmd.Flags().GetString("lang")
		date, _ := cmd.Flags().GetString("date")
		if date == "" {
			date = time.Now().Format(time.DateOnly)
		}

		// Open every page before touching the library.
		var pages []io.Reader
		for _, path := range args[1:] {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open page: %w", err)
			}
			defer f.Close()
			pages = append(pages, f)
		}

		chapter, err := ctrl.Store.AddChapter(series.ID, library.NewChapter{
			Name:        name,
			Number:      number,
			Lang:        lang,
			ReleaseDate: date,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✅ Added chapter %g to '%s' (id: %s)\n", chapter.Number, series.Title, chapter.ID)

		if len(pages) == 0 {
			return nil
		}
		result := ctrl.Store.StorePages(context.Background(), series.ID, chapter.ID, pages)
		fmt.Printf("🖼️  Stored %d/%d pages\n", result.Stored, result.Requested)
		return result.Err
	},
}

var chapterDeleteCmd = &cobra.Command{
	Use:   "delete [chapter-id]",
	Short: "Delete a chapter and its pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ctrl.Store.DeleteChapter(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted chapter %s\n", args[0])
		return nil
	},
}

func init() {
	chapterAddCmd.Flags().Float64P("number", "n", 1, "Chapter number")
	chapterAddCmd.Flags().String("name", "", "Chapter name")
	chapterAddCmd.Flags().StringP("lang", "l", "FR", "Language code")
	chapterAddCmd.Flags().String("date", "", "Release date, YYYY-MM-DD (default today)")

	chapterCmd.AddCommand(chapterAddCmd, chapterDeleteCmd)
	rootCmd.AddCommand(chapterCmd)
}

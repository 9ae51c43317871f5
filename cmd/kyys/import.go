package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/services"
	"github.com/YungFritz/kyys-letters/pkg/sources"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [query]",
	Short: "Import a series and its chapters from MangaDex",
	Long: `Search MangaDex and import the first match, or the series given with --id.
Chapters already in the library are skipped.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		langs, _ := cmd.Flags().GetStringSlice("lang")
		chapterRange, _ := cmd.Flags().GetString("range")
		mangaID, _ := cmd.Flags().GetString("id")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if mangaID == "" {
			if len(args) == 0 {
				return fmt.Errorf("a query or --id is required")
			}
			manga, err := firstMatch(ctx, ctrl.Source, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if manga == nil {
				fmt.Println("❌ No results found.")
				return nil
			}
			mangaID = manga.ID
			fmt.Printf("✅ Found: %s (ID: %s)\n", manga.Series.Title, manga.ID)
		}

		if chapterRange != "" {
			fmt.Printf("📥 Importing chapters %s (languages: %s)\n", chapterRange, langList(langs))
		} else {
			fmt.Printf("📥 Importing all chapters (languages: %s)\n", langList(langs))
		}

		importer := ctrl.NewImporter()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for progress := range importer.Progress() {
				printProgress(progress)
			}
		}()

		report, err := importer.ImportSeries(ctx, mangaID, services.ImportOptions{Langs: langs, ChapterRange: chapterRange})
		importer.Close()
		<-done
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("\n✅ Imported %d chapters of '%s' (%d skipped)\n", report.Imported, report.Series.Title, report.Skipped)
		for _, err := range report.Errors {
			fmt.Printf("⚠️  %s\n", err)
		}
		fmt.Printf("💡 To build an EPUB, use: kyys epub %s\n", report.Series.Slug)
		return nil
	},
}

func init() {
	importCmd.Flags().StringSliceP("lang", "l", []string{"fr"}, "Languages to import, empty for all (e.g. fr,en)")
	importCmd.Flags().StringP("range", "r", "", "Chapter range (e.g. 1-10)")
	importCmd.Flags().String("id", "", "MangaDex id, skips the search")
	rootCmd.AddCommand(importCmd)
}

func firstMatch(ctx context.Context, source sources.Source, query string) (*sources.Manga, error) {
	fmt.Printf("🔍 Searching for '%s'...\n", query)
	results, err := source.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func printProgress(p services.ImportProgress) {
	number := strconv.FormatFloat(p.ChapterNumber, 'f', -1, 64)
	switch {
	case p.Status == "error":
		fmt.Printf("  Chapter %s: error: %v\n", number, p.Error)
	case p.Status == "complete":
	case p.TotalPages > 0:
		fmt.Printf("  Chapter %s: %s %d/%d pages\n", number, p.Status, p.CurrentPage, p.TotalPages)
	default:
		fmt.Printf("  Chapter %s: %s\n", number, p.Status)
	}
}

func langList(langs []string) string {
	if len(langs) == 0 {
		return "all"
	}
	return strings.Join(langs, ", ")
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/spf13/cobra"
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Add, edit or delete series",
}

var seriesAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a series to your library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, _ := cmd.Flags().GetString("slug")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		description, _ := cmd.Flags().GetString("description")
		views, _ := cmd.Flags().GetInt("views")
		hot, _ := cmd.Flags().GetBool("hot")
		suffix, _ := cmd.Flags().GetBool("suffix")

		var opts []library.AddOption
		if suffix {
			opts = append(opts, library.WithSlugSuffix())
		}
		series, err := ctrl.Store.AddSeries(library.NewSeries{
			Title:       strings.Join(args, " "),
			Slug:        slug,
			Tags:        tags,
			Description: description,
			Views:       views,
			Hot:         hot,
		}, opts...)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Added '%s' (slug: %s, id: %s)\n", series.Title, series.Slug, series.ID)
		return nil
	},
}

var seriesEditCmd = &cobra.Command{
	Use:   "edit [slug]",
	Short: "Change the fields of a series",
	Long:  "Change the fields of a series. Only the flags given are applied.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		series, err := findSeries(args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("title") {
			series.Title, _ = flags.GetString("title")
		}
		if flags.Changed("slug") {
			slug, _ := flags.GetString("slug")
			slug = library.Slugify(slug)
			if slug != series.Slug && ctrl.Store.SlugExists(slug) {
				return fmt.Errorf("failed to rename %s: %w", series.Slug, library.ErrSlugTaken)
			}
			series.Slug = slug
		}
		if flags.Changed("tags") {
			series.Tags, _ = flags.GetStringSlice("tags")
		}
		if flags.Changed("description") {
			series.Description, _ = flags.GetString("description")
		}
		if flags.Changed("views") {
			series.Views, _ = flags.GetInt("views")
		}
		if flags.Changed("hot") {
			series.Hot, _ = flags.GetBool("hot")
		}

		if err := ctrl.Store.UpsertSeries(series); err != nil {
			return err
		}
		fmt.Printf("✅ Updated '%s'\n", series.Title)
		return nil
	},
}

var seriesDeleteCmd = &cobra.Command{
	Use:   "delete [slug]",
	Short: "Delete a series with its chapters and images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		series, err := findSeries(args[0])
		if err != nil {
			return err
		}
		if err := ctrl.Store.DeleteSeries(context.Background(), series.ID); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted '%s' and %d chapters\n", series.Title, len(series.Chapters))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{seriesAddCmd, seriesEditCmd} {
		c.Flags().String("slug", "", "URL slug (derived from the title when empty)")
		c.Flags().StringSlice("tags", nil, "Comma separated tags")
		c.Flags().String("description", "", "Short description")
		c.Flags().Int("views", 0, "View count")
		c.Flags().Bool("hot", false, "Flag the series as hot")
	}
	seriesAddCmd.Flags().Bool("suffix", false, "Append a random suffix when the slug is taken")
	seriesEditCmd.Flags().String("title", "", "New title")

	seriesCmd.AddCommand(seriesAddCmd, seriesEditCmd, seriesDeleteCmd)
	rootCmd.AddCommand(seriesCmd)
}

func findSeries(slug string) (data.Series, error) {
	series, ok := ctrl.Store.FindBySlug(slug)
	if !ok {
		return data.Series{}, fmt.Errorf("%s: %w", slug, library.ErrSeriesNotFound)
	}
	return series, nil
}

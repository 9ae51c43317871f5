package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/app/components"
	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all series in your library",
	Long:  "Display all series in your library in a formatted table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sortBy, _ := cmd.Flags().GetString("sort")
		tag, _ := cmd.Flags().GetString("tag")
		hot, _ := cmd.Flags().GetBool("hot")

		var series []data.Series
		switch {
		case tag != "":
			series = ctrl.Store.FilterByTag(tag)
		case hot:
			series = ctrl.Store.Hot()
		default:
			series = ctrl.Store.ListSeries()
		}
		if err := sortSeries(series, sortBy); err != nil {
			return err
		}

		if len(series) == 0 {
			fmt.Println("📚 No series in library. Use 'kyys import' or 'kyys series add' to add one.")
			return nil
		}

		fmt.Printf("\n📚 Library (%d series)\n\n", len(series))
		fmt.Println(seriesTable(series))
		return nil
	},
}

func init() {
	listCmd.Flags().StringP("sort", "s", "title", "Sort order: title, views, created or latest")
	listCmd.Flags().StringP("tag", "t", "", "Only list series with this tag")
	listCmd.Flags().Bool("hot", false, "Only list series flagged hot")
	rootCmd.AddCommand(listCmd)
}

func sortSeries(series []data.Series, by string) error {
	switch by {
	case "title", "":
		sort.SliceStable(series, func(i, j int) bool {
			return strings.ToLower(series[i].Title) < strings.ToLower(series[j].Title)
		})
	case "views":
		sort.SliceStable(series, func(i, j int) bool { return series[i].Views > series[j].Views })
	case "created":
		sort.SliceStable(series, func(i, j int) bool { return series[i].CreatedAt > series[j].CreatedAt })
	case "latest":
		sort.SliceStable(series, func(i, j int) bool { return latestRelease(series[i]) > latestRelease(series[j]) })
	default:
		return fmt.Errorf("unknown sort order %q", by)
	}
	return nil
}

func latestRelease(s data.Series) string {
	latest := ""
	for _, c := range s.Chapters {
		if c.ReleaseDate > latest {
			latest = c.ReleaseDate
		}
	}
	return latest
}

func seriesTable(series []data.Series) string {
	columns := []table.Column{
		{Title: "Title", Width: 36},
		{Title: "Slug", Width: 24},
		{Title: "Tags", Width: 24},
		{Title: "Chapters", Width: 9},
		{Title: "Views", Width: 12},
	}

	rows := []table.Row{}
	for _, s := range series {
		title := s.Title
		if s.Hot {
			title = "🔥 " + title
		}
		rows = append(rows, table.Row{
			components.Truncate(title, 34),
			components.Truncate(s.Slug, 22),
			components.Truncate(strings.Join(s.Tags, ", "), 22),
			strconv.Itoa(len(s.Chapters)),
			library.FormatViews(s.Views),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		// The height includes the header and its border.
		table.WithHeight(len(rows)+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Cell
	t.SetStyles(s)
	return t.View()
}

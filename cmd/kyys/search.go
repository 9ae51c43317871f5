package cmd

import (
	"fmt"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/app/components"
	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search your library",
	Long:  "Search series by title and tags and display results in a table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		fuzzy, _ := cmd.Flags().GetBool("fuzzy")

		var results []data.Series
		if fuzzy {
			results = ctrl.Store.FuzzySearch(query)
		} else {
			results = ctrl.Store.Search(query)
		}

		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		fmt.Println(resultsTable("Title", "Slug", func(row func(title, id string)) {
			for _, s := range results {
				row(s.Title, s.Slug)
			}
		}))
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolP("fuzzy", "f", false, "Rank results by fuzzy match instead of substring")
	rootCmd.AddCommand(searchCmd)
}

func resultsTable(nameHeader, idHeader string, fill func(row func(name, id string))) *table.Table {
	var (
		purple = lipgloss.Color("99")

		headerStyle = lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
		cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			default:
				return cellStyle
			}
		}).
		Headers("#", nameHeader, idHeader)

	i := 0
	fill(func(name, id string) {
		i++
		t.Row(fmt.Sprintf("%d", i), components.Truncate(name, 58), id)
	})
	return t
}

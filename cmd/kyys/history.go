package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show what you read last",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		rows := historyRows(ctrl.Store, limit)
		if len(rows) == 0 {
			fmt.Println("📖 Nothing read yet.")
			return nil
		}
		fmt.Println(resultsTable("Read", "When", func(row func(name, id string)) {
			for _, r := range rows {
				row(r.read, r.when)
			}
		}))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show, 0 for all")
	rootCmd.AddCommand(historyCmd)
}

type historyRow struct {
	read string
	when string
}

// historyRows resolves the reading history against the library. Entries
// whose series is gone are skipped.
func historyRows(store *library.Store, limit int) []historyRow {
	var rows []historyRow
	for _, entry := range store.History() {
		if limit > 0 && len(rows) == limit {
			break
		}
		series, ok := store.GetSeries(entry.SeriesID)
		if !ok {
			continue
		}
		read := series.Title
		if chapter, ok := store.GetChapter(entry.ChapterID); ok {
			read += " · Chapitre " + strconv.FormatFloat(chapter.Number, 'f', -1, 64)
		}
		rows = append(rows, historyRow{
			read: read,
			when: time.UnixMilli(entry.At).Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

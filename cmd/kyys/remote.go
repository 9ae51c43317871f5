package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/remote"
	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Publish series to the shared bucket and pull them back",
	Long: `Publish series to the shared bucket and pull them back.

When KYYS_BLOB_URL is set the commands go through that kyys server,
otherwise they use the configured bucket directly.`,
}

var remotePublishCmd = &cobra.Command{
	Use:   "publish [slug]",
	Short: "Publish a series snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := ctrl.Publish(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
		fmt.Printf("☁️  Published %s\n🔗 %s\n", saved.Key, saved.URL)
		return nil
	},
}

var remotePullCmd = &cobra.Command{
	Use:   "pull [key or slug]",
	Short: "Merge a published snapshot into your library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !strings.Contains(key, "/") {
			key = remote.SeriesKey(key)
		}
		found, err := ctrl.Pull(context.Background(), key)
		if err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}
		if !found {
			fmt.Printf("❌ Nothing published under %s\n", key)
			return nil
		}
		fmt.Printf("✅ Merged %s into your library\n", key)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := ctrl.ListPublished(context.Background())
		if err != nil {
			return fmt.Errorf("list failed: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("Nothing published yet.")
			return nil
		}
		fmt.Println(resultsTable("Key", "Uploaded", func(row func(name, id string)) {
			for _, item := range items {
				row(item.Key, item.UploadedAt.Local().Format("2006-01-02 15:04"))
			}
		}))
		return nil
	},
}

var remoteDeleteCmd = &cobra.Command{
	Use:   "delete [slug]",
	Short: "Remove a published snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ctrl.Unpublish(context.Background(), args[0]); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Printf("🗑️  Unpublished %s\n", args[0])
		return nil
	},
}

func init() {
	remoteCmd.AddCommand(remotePublishCmd, remotePullCmd, remoteListCmd, remoteDeleteCmd)
	rootCmd.AddCommand(remoteCmd)
}

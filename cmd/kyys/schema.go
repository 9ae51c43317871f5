package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of backups and published snapshots",
	Args:  cobra.NoArgs,
	// Needs no library.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		r := jsonschema.Reflector{DoNotReference: true}
		schema := r.Reflect(&data.Snapshot{})
		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/YungFritz/kyys-letters/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// Needs no library.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Long: `Write the effective configuration (file, .env and KYYS_* variables,
then defaults) to the config file. Tokens are never written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := writeConfig(cfg, configPath, force); err != nil {
			return err
		}
		fmt.Printf("✅ Config written to %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func writeConfig(cfg *config.Config, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config: %w", err)
		}
	}
	return cfg.Save(path)
}

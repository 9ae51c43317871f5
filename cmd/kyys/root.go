package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/YungFritz/kyys-letters/pkg/app"
	"github.com/YungFritz/kyys-letters/pkg/config"
	"github.com/YungFritz/kyys-letters/pkg/services"
	"github.com/YungFritz/kyys-letters/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	ctrl *services.Controller
)

var rootCmd = &cobra.Command{
	Use:           "kyys",
	Short:         "Kyy's Letters, a scan library in your terminal",
	Long:          "Browse, import and publish your scan library with a TUI and a CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Launch TUI by default
		langs, _ := cmd.Flags().GetStringSlice("lang")
		return app.NewApp(ctrl, langs...).Run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringSlice("lang", nil, "Languages kept when importing from the TUI (e.g. fr,en)")
}

// setup loads the configuration and opens the library once per process.
func setup() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger, _ := utils.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctrl, err = services.NewController(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	return nil
}

func Execute() {
	err := rootCmd.Execute()
	if ctrl != nil {
		if cerr := ctrl.Close(); cerr != nil {
			slog.Warn("failed to close library", "err", cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the blob proxy and the read-only library API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = ctrl.Config.Server.Addr
		}
		if ctrl.Config.Server.Token == "" {
			slog.Warn("KYYS_BLOB_READ_WRITE_TOKEN is not set, /series endpoints will answer 500")
		}

		srv, err := ctrl.NewServer(ctx)
		if err != nil {
			return err
		}

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- srv.Start(addr)
		}()

		select {
		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		case <-ctx.Done():
			slog.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			slog.Info("server stopped")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"attendsync/internal/app/client"
	"attendsync/internal/app/client/config"
	"attendsync/internal/utils/logger"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	serverURL string
	tenantID  string
)

var rootCmd = &cobra.Command{
	Use:   "attendsync",
	Short: "Offline-first attendance capture client",
	Long: `Attendsync captures attendance marks into a durable local queue and
flushes them to the server in batches when connectivity allows.

Marks are never lost: every capture lands in local storage first and
keeps its sync state (pending, synced, failed) across restarts.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg = config.MustLoad()

	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if tenantID != "" {
		cfg.TenantID = tenantID
	}

	log = logger.New(cfg.Env)

	var err error
	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("app init failed: %w", err)
	}

	cmd.SetContext(client.NewContext(cmd.Context(), app))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "attendance server address")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "tenant identifier override")
}

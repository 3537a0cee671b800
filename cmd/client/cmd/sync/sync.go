package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"attendsync/internal/app/client"
)

var showStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Flush queued marks to the server",
	Long: `Sends every outstanding mark (pending and failed) to the server in
one batch and applies the per-record outcomes. Marks rejected by the
server stay in the queue as failed and ride along with the next flush.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("app not initialized")
		}

		if showStatus {
			return printStatus(app)
		}

		if !app.IsAuthenticated() {
			return fmt.Errorf("no access token stored; run: attendsync init")
		}

		start := time.Now()
		result, err := app.Flush(cmd.Context())
		if err != nil {
			if errors.Is(err, client.ErrFlushInFlight) {
				fmt.Println("A flush is already running; try again shortly.")
				return nil
			}
			return fmt.Errorf("flush failed: %w", err)
		}

		if result.Total == 0 {
			fmt.Println("Nothing to sync.")
			return nil
		}

		color.Green("Flush finished in %v", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  total:     %d\n", result.Total)
		fmt.Printf("  synced:    %d\n", result.Succeeded)
		fmt.Printf("  failed:    %d\n", result.Failed)
		if result.Conflicts > 0 {
			color.Yellow("  conflicts: %d (overwritten server-side, see audit log)", result.Conflicts)
		}
		return nil
	},
}

func printStatus(app *client.App) error {
	settings, err := app.Queue().Settings(app.Config().TenantID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	counts, err := app.Queue().CountByState(app.Config().TenantID)
	if err != nil {
		return fmt.Errorf("count queue: %w", err)
	}

	fmt.Printf("pending: %d  synced: %d  failed: %d\n",
		counts[client.StatePending], counts[client.StateSynced], counts[client.StateFailed])

	if settings.LastSyncAt == nil {
		fmt.Println("No flush has reached the server yet.")
		return nil
	}
	fmt.Printf("last flush: %s (synced %d, failed %d, conflicts %d)\n",
		settings.LastSyncAt.Local().Format("2006-01-02 15:04:05"),
		settings.LastSucceeded, settings.LastFailed, settings.LastConflicts)
	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&showStatus, "status", false, "show queue and last flush status")
}

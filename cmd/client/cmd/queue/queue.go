package queue

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"attendsync/internal/app/client"
)

var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the local mark queue",
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued marks, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("app not initialized")
		}

		marks, err := app.Queue().ListByTenant(app.Config().TenantID)
		if err != nil {
			return fmt.Errorf("list queue: %w", err)
		}

		if len(marks) == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LOCAL ID\tSESSION\tSTUDENT\tSTATUS\tSTATE\tQUEUED AT")
		for _, m := range marks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				m.LocalID, m.SessionID, m.StudentID, m.Status,
				colorState(m.SyncState), m.QueuedAt.Format("2006-01-02 15:04:05"))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		counts, err := app.Queue().CountByState(app.Config().TenantID)
		if err != nil {
			return fmt.Errorf("count queue: %w", err)
		}
		fmt.Printf("\npending: %d  synced: %d  failed: %d\n",
			counts[client.StatePending], counts[client.StateSynced], counts[client.StateFailed])
		return nil
	},
}

var PruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete acknowledged marks from the local queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("app not initialized")
		}

		pruned, err := app.Queue().PruneSynced(app.Config().TenantID)
		if err != nil {
			return fmt.Errorf("prune queue: %w", err)
		}

		fmt.Printf("Pruned %d synced mark(s).\n", pruned)
		return nil
	},
}

func colorState(state string) string {
	switch state {
	case client.StateSynced:
		return color.GreenString(state)
	case client.StateFailed:
		return color.RedString(state)
	default:
		return color.YellowString(state)
	}
}

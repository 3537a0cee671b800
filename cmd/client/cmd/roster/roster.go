package roster

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"attendsync/internal/app/client"
	"attendsync/internal/domain/risk"
)

var RosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Show the active session roster with risk tiers",
	Long: `Fetches the current session for the authenticated faculty with the
enrolled students and their attendance risk tiers. The roster is cached
locally; when the server is unreachable the cached copy is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("app not initialized")
		}

		roster, fromCache, err := app.ActiveSession(cmd.Context())
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
		if roster == nil {
			fmt.Println("No active session right now.")
			return nil
		}

		if fromCache {
			color.Yellow("Server unreachable; showing cached roster.")
		}

		fmt.Printf("%s — %s (%s)\n", roster.SubjectName, roster.BatchName, roster.ScheduledAt)
		fmt.Printf("faculty: %s\n\n", roster.FacultyName)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROLL\tNAME\tRISK")
		for _, s := range roster.Students {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.RollNumber, s.Name, colorRisk(s.RiskLevel))
		}
		return w.Flush()
	},
}

func colorRisk(level risk.Level) string {
	switch level {
	case risk.LevelHigh:
		return color.RedString(string(level))
	case risk.LevelMedium:
		return color.YellowString(string(level))
	default:
		return color.GreenString(string(level))
	}
}

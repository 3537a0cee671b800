package mark

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"attendsync/internal/app/client"
)

var (
	sessionID string
	studentID string
	status    string
)

var MarkCmd = &cobra.Command{
	Use:   "mark",
	Short: "Capture an attendance mark locally",
	Long: `Captures one attendance mark into the durable local queue. The mark
is stored immediately and synced to the server on the next flush; the
command works fully offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("app not initialized")
		}

		queued, err := app.Capture(sessionID, studentID, status, time.Now())
		if err != nil {
			return fmt.Errorf("capture mark: %w", err)
		}

		color.Green("Mark queued")
		fmt.Printf("  local id:   %s\n", queued.LocalID)
		fmt.Printf("  session:    %s\n", queued.SessionID)
		fmt.Printf("  student:    %s\n", queued.StudentID)
		fmt.Printf("  status:     %s\n", queued.Status)
		fmt.Printf("  captured:   %s\n", queued.CapturedAt)
		return nil
	},
}

func init() {
	MarkCmd.Flags().StringVar(&sessionID, "session", "", "schedule session id")
	MarkCmd.Flags().StringVar(&studentID, "student", "", "student id")
	MarkCmd.Flags().StringVar(&status, "status", "present", "present, absent or late")
	MarkCmd.MarkFlagRequired("session")
	MarkCmd.MarkFlagRequired("student")
}

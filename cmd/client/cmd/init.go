package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"attendsync/cmd/client/cmd/mark"
	"attendsync/cmd/client/cmd/queue"
	"attendsync/cmd/client/cmd/roster"
	"attendsync/cmd/client/cmd/sync"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure the client with an access token",
	Long: `The init command stores the faculty access token and checks the
server connection. The token is issued by the institution's identity
system and carries the tenant and faculty identity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Paste access token: ")
		token, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		fmt.Println()

		if len(token) == 0 {
			return fmt.Errorf("token must not be empty")
		}

		if err := app.SaveToken(string(token)); err != nil {
			return fmt.Errorf("store token: %w", err)
		}

		fmt.Println("Checking server connection...")
		if err := app.CheckConnection(cmd.Context()); err != nil {
			color.Yellow("Warning: server unreachable: %v", err)
			fmt.Println("You can capture marks offline; run 'attendsync sync' later.")
		} else {
			color.Green("Server connection OK")
		}

		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  attendsync roster         # see your active session")
		fmt.Println("  attendsync mark --help    # capture a mark")
		fmt.Println("  attendsync sync           # push the queue to the server")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(mark.MarkCmd)
	rootCmd.AddCommand(roster.RosterCmd)
	rootCmd.AddCommand(sync.SyncCmd)

	rootCmd.AddCommand(queue.QueueCmd)
	queue.QueueCmd.AddCommand(queue.ListCmd)
	queue.QueueCmd.AddCommand(queue.PruneCmd)
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"photonotes/pkg/auth"
	"photonotes/pkg/ui"
)

// logoutAll removes every stored session instead of a single one
var logoutAll bool

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored Flickr sessions",
	Long: `Remove a stored OAuth session so photonotes goes back to unsigned,
public-only API calls.

Without arguments the single stored session is removed after a
confirmation. When several accounts are stored, name the one to remove
or pass --all to clear them all.`,
	Example: `  # Remove the stored session
  photonotes logout

  # Remove one of several stored sessions
  photonotes logout someuser

  # Remove every stored session
  photonotes logout --all`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored session")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize session store", err.Error())
		os.Exit(1)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove sessions", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All stored sessions removed")
		return
	}

	if len(args) == 1 {
		if err := manager.Delete(args[0]); err != nil {
			ui.PrintError("Failed to remove session", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Session removed: " + args[0])
		return
	}

	sessions, err := manager.List()
	if err != nil || len(sessions) == 0 {
		ui.PrintError("No stored sessions found")
		os.Exit(1)
	}
	if len(sessions) > 1 {
		names := make([]string, len(sessions))
		for i, session := range sessions {
			names[i] = session.Username
		}
		ui.PrintError("Several sessions stored",
			"name one of "+strings.Join(names, ", ")+" or pass --all")
		os.Exit(1)
	}

	session := sessions[0]
	answer := promptLine(fmt.Sprintf("Remove the session for %q? (y/N): ", session.Username))
	if !strings.HasPrefix(strings.ToLower(answer), "y") {
		fmt.Println("Session kept.")
		return
	}
	if err := manager.Delete(session.Username); err != nil {
		ui.PrintError("Failed to remove session", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Session removed: " + session.Username)
}

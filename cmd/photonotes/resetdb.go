package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"photonotes/pkg/ui"
)

// forceReset skips the confirmation prompt
var forceReset bool

// resetDBCmd represents the reset-db command
var resetDBCmd = &cobra.Command{
	Use:   "reset-db",
	Short: "Drop and recreate the inventory tables",
	Long: `Drop the flickr_image and flickr_blog inventory tables and recreate
them empty.

Only the tables owned by photonotes are touched; the backed-up
notebooks and notes are never modified. A subsequent
'update-db --notebook *' rebuilds the inventory from the backup.`,
	Example: `  photonotes reset-db
  photonotes reset-db --force`,
	Run: runResetDB,
}

func init() {
	rootCmd.AddCommand(resetDBCmd)

	resetDBCmd.Flags().BoolVar(&forceReset, "force", false, "reset without asking for confirmation")
}

func runResetDB(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(globalFlags())

	if !forceReset {
		answer := promptLine("Drop the inventory tables? All rows are lost. (yes/N): ")
		if answer != "yes" {
			ui.PrintInfo("Reset cancelled", "use --force to skip this prompt")
			return
		}
	}

	ctx := context.Background()
	db := mustOpenDatabase(ctx, cfg)
	defer db.Close()

	if err := db.Reset(ctx); err != nil {
		ui.PrintError("Reset failed", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Inventory tables recreated")
}

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"photonotes/pkg/logger"
	"photonotes/pkg/ui"
	"photonotes/pkg/updater"
)

var (
	// update-db command flags
	notebookName string
	tagName      string
	noteTitle    string
	updateLimit  int
	skipNotes    int
)

// updateDBCmd represents the update-db command
var updateDBCmd = &cobra.Command{
	Use:   "update-db",
	Short: "Reconcile the note inventory with the note backup",
	Long: `Scan notebooks in the note backup database and bring the inventory
tables up to date.

Notes tagged flickr-image are matched against the image inventory, notes
tagged flickr-blog against the blog inventory. New notes get fresh rows,
replaced notes are rebound, and notes whose content drifted from their
links are flagged for manual cleanup. Rows verified recently are left
alone.

The backup database is only read; run your backup tool first so the
scan sees the current notes.`,
	Example: `  # Reconcile every notebook
  photonotes update-db --notebook '*'

  # One notebook, only notes carrying a tag
  photonotes update-db --notebook Photos --tag-name image-update

  # Re-check a single note by title
  photonotes update-db --notebook Photos --note-title 'lake mist 53123456789'

  # Work through a large backlog in slices
  photonotes update-db --notebook '*' --limit 500 --skip 1000`,
	Run: runUpdateDB,
}

func init() {
	rootCmd.AddCommand(updateDBCmd)

	updateDBCmd.Flags().StringVarP(&notebookName, "notebook", "n", "", "notebook to scan, '*' or 'all' for every notebook")
	updateDBCmd.Flags().StringVar(&tagName, "tag-name", "", "only scan notes carrying this tag")
	updateDBCmd.Flags().StringVar(&noteTitle, "note-title", "", "only scan notes with this exact title")
	updateDBCmd.Flags().IntVar(&updateLimit, "limit", 10000, "stop after this many inventory updates")
	updateDBCmd.Flags().IntVar(&skipNotes, "skip", 0, "skip this many matching notes before updating")
	_ = updateDBCmd.MarkFlagRequired("notebook")
}

func runUpdateDB(cmd *cobra.Command, args []string) {
	if updateLimit < 1 {
		ui.PrintError("--limit must be at least 1")
		os.Exit(1)
	}

	flags := globalFlags()
	if updateLimit != 10000 {
		flags["limit"] = updateLimit
	}
	cfg := mustLoadConfig(flags)

	ctx := context.Background()
	db := mustOpenDatabase(ctx, cfg)
	defer db.Close()

	summary, err := updater.New(cfg, db, logger.GetLogger()).Run(ctx, updater.RunOptions{
		Notebook:  notebookName,
		TagName:   tagName,
		NoteTitle: noteTitle,
		Limit:     updateLimit,
		Skip:      skipNotes,
	})
	if err != nil {
		logger.WithError(err).Error("update pass failed")
		ui.PrintError("Update failed", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Notebooks", strings.Join(summary.Notebooks, ", "))
	ui.PrintInfo("Notes scanned", strconv.Itoa(summary.Scanned))
	ui.PrintInfo("Inventory rows updated", strconv.Itoa(summary.Updated))
	if summary.Skipped > 0 {
		ui.PrintInfo("Notes skipped", strconv.Itoa(summary.Skipped))
	}
	if summary.Cleanups > 0 {
		ui.PrintWarning(fmt.Sprintf("%d notes need manual cleanup, see the log", summary.Cleanups))
	}
	if summary.LimitHit {
		ui.PrintWarning("Update limit reached, pass stopped early")
		return
	}
	ui.PrintSuccess("Inventory is up to date")
}

package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"photonotes/pkg/enex"
	"photonotes/pkg/ui"
)

// outputPath overrides the export filename
var outputPath string

// extractENEXCmd represents the extract-enex command
var extractENEXCmd = &cobra.Command{
	Use:   "extract-enex <guid-or-title>",
	Short: "Export one backed-up note as an ENEX file",
	Long: `Pull a single note out of the note backup database and write it as
an Evernote import file.

The argument is tried as a note GUID first, then as an exact title.
Useful for restoring a note that was damaged or deleted in Evernote
after the backup was taken.`,
	Example: `  # By GUID
  photonotes extract-enex 8d2c1f7a-1b2c-4d5e-8f90-0a1b2c3d4e5f

  # By title, to a chosen file
  photonotes extract-enex 'lake mist 53123456789' --output restored.enex`,
	Args: cobra.ExactArgs(1),
	Run:  runExtractENEX,
}

func init() {
	rootCmd.AddCommand(extractENEXCmd)

	extractENEXCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the export here instead of <title>.enex")
}

func runExtractENEX(cmd *cobra.Command, args []string) {
	key := strings.TrimSpace(args[0])

	cfg := mustLoadConfig(globalFlags())

	ctx := context.Background()
	db := mustOpenDatabase(ctx, cfg)
	defer db.Close()

	note, err := db.GetNoteByGUID(ctx, key)
	if err == nil && note == nil {
		note, err = db.GetNoteByTitle(ctx, key)
	}
	if err != nil {
		ui.PrintError("Note lookup failed", err.Error())
		os.Exit(1)
	}
	if note == nil {
		ui.PrintError("No backed-up note matches", key)
		os.Exit(1)
	}

	document, err := enex.ExportNote(note)
	if err != nil {
		ui.PrintError("Export failed", err.Error())
		os.Exit(1)
	}

	path := outputPath
	if path == "" {
		path = exportFilename(note.Title) + ".enex"
	}
	if err := os.WriteFile(path, []byte(document), 0644); err != nil {
		ui.PrintError("Failed to write export", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Note", note.Title)
	ui.PrintSuccess("Note exported: " + path)
}

// exportFilename turns a note title into a usable filename
func exportFilename(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "note"
	}
	return name
}

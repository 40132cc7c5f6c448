package main

import (
	"context"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"photonotes/pkg/creator"
	apperrors "photonotes/pkg/errors"
	"photonotes/pkg/flickr"
	"photonotes/pkg/logger"
	"photonotes/pkg/ui"
)

var (
	// create-note command flags
	maxPos         int
	nonInteractive bool
	writeXML       bool
)

// createNoteCmd represents the create-note command
var createNoteCmd = &cobra.Command{
	Use:   "create-note [flickr-url]",
	Short: "Build an Evernote import file for a Flickr photo or person",
	Long: `Build an Evernote import file (.enex) for a Flickr URL.

A photo URL (flickr.com/photos/<owner>/<id>) becomes a photo note with
the image preview, license, location, album and group memberships, and
the owner's stream activity. A people URL (flickr.com/people/<owner>)
becomes a blog note describing the photographer.

The URL is taken from the argument. Without an argument the clipboard
is tried; a literal '?' argument forces an interactive prompt. A photo
deeper in the stream than the scan limit can pin its page with a ':N'
suffix, for example .../photos/someone/9001:17.

The finished export lands in the import directory next to a marker file
that records the source URL until the note is imported.`,
	Example: `  # Build a photo note
  photonotes create-note https://www.flickr.com/photos/someone/53123456789

  # Build a blog note for the photographer
  photonotes create-note https://www.flickr.com/people/someone/

  # URL from the clipboard
  photonotes create-note

  # Photo sits on stream page 17, skip the walk up to there
  photonotes create-note https://www.flickr.com/photos/someone/53123456789:17

  # Scan deeper streams before giving up
  photonotes create-note --max-pos 20000 https://www.flickr.com/photos/someone/53123456789`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCreateNote,
}

func init() {
	rootCmd.AddCommand(createNoteCmd)

	createNoteCmd.Flags().IntVar(&maxPos, "max-pos", 5000, "deepest photostream position scanned for the photo")
	createNoteCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt, fail instead")
	createNoteCmd.Flags().BoolVar(&writeXML, "xml", false, "always write the .xml diagnostic body next to the export")
}

func runCreateNote(cmd *cobra.Command, args []string) {
	rawURL := resolveTargetURL(args)
	spec, err := flickr.ParseURL(rawURL)
	if err != nil {
		ui.PrintError("Unrecognized Flickr URL", err.Error())
		os.Exit(1)
	}

	flags := globalFlags()
	if maxPos != 5000 {
		flags["max-pos"] = maxPos
	}
	cfg := mustLoadConfig(flags)

	ctx := context.Background()
	db := mustOpenDatabase(ctx, cfg)
	defer db.Close()

	builder, err := creator.New(cfg, newFlickrClient(cfg), db, logger.GetLogger())
	if err != nil {
		ui.PrintError("Failed to initialize note builder", err.Error())
		os.Exit(1)
	}
	if writeXML {
		builder.SetXMLDiagnostics(true)
	}

	switch spec.Kind {
	case flickr.URLKindPerson:
		ui.PrintInfo("Blog note", rawURL)
		err = builder.CreateBlogNote(ctx, rawURL)
	default:
		ui.PrintInfo("Photo note", rawURL)
		err = builder.CreatePhotoNote(ctx, rawURL)
	}

	if err != nil {
		// A photo that is gone or unlisted is a warning, not a failed run
		if apperrors.IsNotFound(err) {
			logger.WithError(err).WithField("url", rawURL).Warn("note not created")
			ui.PrintWarning("Nothing found to describe, no note created")
			return
		}
		logger.WithError(err).WithField("url", rawURL).Error("note not created")
		ui.PrintError("Note not created", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Note created, ready for import")
}

// resolveTargetURL picks the Flickr URL to work on: the argument when
// given, otherwise the clipboard. A literal "?" argument skips the
// clipboard and always prompts.
func resolveTargetURL(args []string) string {
	var rawURL string
	if len(args) > 0 {
		rawURL = strings.TrimSpace(args[0])
	}

	if rawURL == "" {
		if text, err := clipboard.ReadAll(); err == nil {
			text = strings.TrimSpace(text)
			if strings.Contains(text, "https://") {
				rawURL = text
				ui.PrintInfo("URL from clipboard", rawURL)
			}
		}
	}

	if rawURL == "" || rawURL == "?" {
		if nonInteractive {
			ui.PrintError("No Flickr URL in the argument or clipboard")
			os.Exit(1)
		}
		rawURL = promptLine("Flickr URL: ")
	}

	if rawURL == "" {
		ui.PrintError("No Flickr URL given")
		os.Exit(1)
	}
	return rawURL
}

package updater

import (
	"context"
	"fmt"
	"strings"
	"time"

	"photonotes/pkg/config"
	"photonotes/pkg/database"
	"photonotes/pkg/errors"
	"photonotes/pkg/logger"
	"photonotes/pkg/notes"
)

// Tags that bind a backup note to one of the two inventories.
const (
	TagPhotoNote = "flickr-image"
	TagBlogNote  = "flickr-blog"

	// Notes carrying this tag describe content that is gone from
	// Flickr; the updater leaves them alone.
	TagInaccessible = "inaccessible"
)

// RunOptions select which backup notes one update pass visits.
type RunOptions struct {
	// Notebook is the notebook name to scan; "*" or "all" scans every
	// notebook.
	Notebook string
	// TagName restricts the pass to notes carrying the tag.
	TagName string
	// NoteTitle restricts the pass to notes with this exact title.
	NoteTitle string
	// Limit caps the number of inventory writes; the pass stops
	// cleanly when it is reached. Zero means the configured default.
	Limit int
	// Skip leaves the first N classified notes untouched.
	Skip int
}

// Summary reports what one update pass did.
type Summary struct {
	Notebooks []string
	Scanned   int
	Updated   int
	Skipped   int
	Cleanups  int
	LimitHit  bool
}

// Updater drives update passes over an open backup database.
type Updater struct {
	db       *database.DB
	analyzer *notes.Analyzer
	logger   logger.Logger

	defaultLimit int
	quietDays    int
	now          func() time.Time
}

// New creates an Updater. The limit default and the quiet window come
// from the update section of the configuration.
func New(cfg *config.Config, db *database.DB, log logger.Logger) *Updater {
	if log == nil {
		log = logger.GetLogger()
	}
	analyzer := notes.NewAnalyzer(log)
	// http links before the thumbnail are note scaffolding, not photo
	// description content, so they are ours to flag
	analyzer.SetWarnHTTPLinks(true)

	return &Updater{
		db:           db,
		analyzer:     analyzer,
		logger:       log,
		defaultLimit: cfg.Update.Limit,
		quietDays:    cfg.Update.NoUpdateAgeDays,
		now:          time.Now,
	}
}

// Run executes one update pass and reports what it did. A notebook
// name that matches nothing in the backup is an error.
func (u *Updater) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if opts.Notebook == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "notebook name is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = u.defaultLimit
	}

	notebooks, err := u.db.ListNotebooks(ctx)
	if err != nil {
		return nil, err
	}

	all := opts.Notebook == "*" || opts.Notebook == "all"
	summary := &Summary{}
	for _, nb := range notebooks {
		if !all && nb.Name != opts.Notebook {
			u.logger.WithField("notebook", nb.Name).Debug("notebook not selected")
			continue
		}
		summary.Notebooks = append(summary.Notebooks, nb.Name)
		if err := u.updateNotebook(ctx, nb, &opts, summary); err != nil {
			return summary, err
		}
		if summary.LimitHit {
			break
		}
	}

	if len(summary.Notebooks) == 0 {
		return nil, errors.New(errors.ErrorTypeNotFound,
			fmt.Sprintf("notebook %q not found in the backup", opts.Notebook))
	}

	u.logger.InfoWithFields("update pass finished", map[string]interface{}{
		"notebooks": strings.Join(summary.Notebooks, ", "),
		"scanned":   summary.Scanned,
		"updated":   summary.Updated,
		"cleanups":  summary.Cleanups,
	})
	return summary, nil
}

// updateNotebook scans one notebook's notes in title order.
func (u *Updater) updateNotebook(ctx context.Context, nb database.Notebook, opts *RunOptions, summary *Summary) error {
	u.logger.InfoWithFields("updating notebook", map[string]interface{}{
		"notebook": nb.Name,
	})

	noteList, err := u.db.ListNotesInNotebook(ctx, nb.GUID)
	if err != nil {
		return err
	}

	for _, note := range noteList {
		summary.Scanned++
		ref := noteRef(summary.Scanned, note)

		if len(note.Tags) == 0 {
			u.logger.WarnWithFields("ignoring note without tags", map[string]interface{}{
				"note": ref,
			})
			continue
		}
		if note.HasTag(TagInaccessible) {
			u.logger.WithField("note", ref).Debug("skipping inaccessible note")
			continue
		}
		if opts.TagName != "" && !note.HasTag(opts.TagName) {
			u.logger.WithField("note", ref).Debug("note does not carry the requested tag")
			continue
		}

		isPhoto := note.HasTag(TagPhotoNote)
		isBlog := !isPhoto && note.HasTag(TagBlogNote)
		if !isPhoto && !isBlog {
			continue
		}

		if opts.Skip > 0 {
			opts.Skip--
			summary.Skipped++
			u.logger.WarnWithFields("skipping note", map[string]interface{}{
				"note": ref,
			})
			continue
		}
		if !note.Deleted.IsZero() {
			u.logger.WithField("note", ref).Debug("ignoring deleted note")
			continue
		}
		if opts.NoteTitle != "" && note.Title != opts.NoteTitle {
			continue
		}

		if summary.Updated >= opts.Limit {
			u.logger.WarnWithFields("update limit reached, stopping", map[string]interface{}{
				"limit": opts.Limit,
				"note":  ref,
			})
			summary.LimitHit = true
			return nil
		}

		if isPhoto {
			err = u.updatePhotoNote(ctx, note, ref, summary)
		} else {
			err = u.updateBlogNote(ctx, note, ref, summary)
		}
		if err != nil {
			// Bad data and broken setup stop the pass; anything else
			// is logged and the pass moves on to the next note.
			if errors.IsFatal(errors.TypeOf(err)) {
				return err
			}
			if errors.IsNotFound(err) {
				u.logger.WithError(err).WithField("note", ref).Warn("note skipped")
			} else {
				u.logger.WithError(err).WithField("note", ref).Error("note skipped")
			}
		}
	}
	return nil
}

// noteRef names a note in log output and warning reports
func noteRef(pos int, note *database.Note) string {
	return fmt.Sprintf("%d: %s", pos, note.Title)
}

// noteChangedSince reports whether the note was edited after a
// verification date. Verification has day precision, so edits on the
// verification day itself count as changes.
func noteChangedSince(note *database.Note, verified database.Date) bool {
	return !verified.Valid || note.Updated.After(verified.Time)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

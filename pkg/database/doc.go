// Package database reads the note-backup SQLite file and maintains the
// photo-note inventory inside it.
//
// The backup file is produced by an external tool and holds two tables
// this package only reads: notebooks and notes. Note bodies live in the
// notes.raw_note column as zlib-deflated XML documents (the same <note>
// element an export file carries); DecodeRawNote inflates and parses
// them into tags, timestamps and ENML content.
//
// Alongside the backup tables the package owns two inventory tables,
// flickr_blog and flickr_image, created on first open. Every generated
// photo note and blog note gets a row there keyed by "owner|photo_id"
// and blog id respectively, so later runs can tell new photos from
// known ones and relink notes after imports.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database.Path, log)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	note, err := db.GetPhotoNote(ctx, database.ImageKey(owner, photoID))
package database

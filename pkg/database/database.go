package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"photonotes/pkg/errors"
	"photonotes/pkg/logger"

	_ "modernc.org/sqlite"
)

// schemaSQL creates the tool-owned inventory tables. The backup tables
// (notes, notebooks) belong to the backup tool and are never created
// or altered here.
const schemaSQL = `
	CREATE TABLE IF NOT EXISTS flickr_blog (
		blog_id TEXT PRIMARY KEY,
		guid_note TEXT,
		entry_updated TEXT,
		date_verified TEXT,
		image_count INTEGER,
		favorite INTEGER,
		last_upload TEXT,
		is_gone INTEGER DEFAULT FALSE
	);
	CREATE TABLE IF NOT EXISTS flickr_image (
		image_key TEXT PRIMARY KEY,
		see_info TEXT,
		reference TEXT,
		guid_note TEXT,
		note_tags TEXT,
		blog_id TEXT,
		need_cleanup TEXT DEFAULT '',
		entry_updated TEXT,
		date_verified TEXT,
		photo_id TEXT NOT NULL,
		secret_id TEXT,
		size_suffix TEXT,
		photo_taken TEXT,
		photo_uploaded TEXT,
		is_gone BOOLEAN DEFAULT FALSE
	);
	CREATE INDEX IF NOT EXISTS idx_blog ON flickr_blog(blog_id);
	CREATE INDEX IF NOT EXISTS idx_image_blog ON flickr_image(blog_id);
`

// DB wraps the note-backup SQLite file. The backup tables are read-only
// inputs; the flickr_blog and flickr_image inventory tables are owned
// and maintained by photonotes.
type DB struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

// Open opens a note-backup database and ensures the inventory tables
// exist. The file must already contain the backup tool's notes table;
// photonotes never creates the backup itself.
func Open(ctx context.Context, path string, log logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	// WAL keeps readers unblocked during inventory writes
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to open note database", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrorTypeDatabase,
			fmt.Sprintf("failed to open note database at %s", path), err)
	}

	d := &DB{db: db, logger: log, now: time.Now}

	if err := d.verifyBackupTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.ensureTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.DebugWithFields("note database opened", map[string]interface{}{
		"path": path,
	})
	return d, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// verifyBackupTables confirms the file is a note backup before touching it
func (d *DB) verifyBackupTables(ctx context.Context) error {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('notes', 'notebooks')`,
	).Scan(&count)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeDatabase, "failed to inspect database schema", err)
	}
	if count != 2 {
		return errors.New(errors.ErrorTypeDatabase,
			"database has no notes/notebooks tables; not a note backup file")
	}
	return nil
}

// ensureTables creates the inventory tables when missing
func (d *DB) ensureTables(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(errors.ErrorTypeDatabase, "failed to create inventory tables", err)
	}
	return nil
}

// Reset drops and recreates the tool-owned inventory tables. The backup
// tables are untouched.
func (d *DB) Reset(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		DROP TABLE IF EXISTS flickr_blog;
		DROP TABLE IF EXISTS flickr_image;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeDatabase, "failed to drop inventory tables", err)
	}

	if err := d.ensureTables(ctx); err != nil {
		return err
	}

	d.logger.Info("inventory tables reset")
	return nil
}

// ListNotebooks returns the backup's notebooks sorted by name
func (d *DB) ListNotebooks(ctx context.Context) ([]Notebook, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT guid, name, COALESCE(stack, '') FROM notebooks ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to list notebooks", err)
	}
	defer rows.Close()

	var notebooks []Notebook
	for rows.Next() {
		var nb Notebook
		if err := rows.Scan(&nb.GUID, &nb.Name, &nb.Stack); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to scan notebook", err)
		}
		notebooks = append(notebooks, nb)
	}
	return notebooks, rows.Err()
}

// GetNotebookByName finds a notebook by its exact name, nil when absent
func (d *DB) GetNotebookByName(ctx context.Context, name string) (*Notebook, error) {
	var nb Notebook
	err := d.db.QueryRowContext(ctx,
		`SELECT guid, name, COALESCE(stack, '') FROM notebooks WHERE name = ?`, name,
	).Scan(&nb.GUID, &nb.Name, &nb.Stack)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to look up notebook", err)
	}
	return &nb, nil
}

// GetNoteByGUID loads one backed-up note with its decoded content,
// nil when absent
func (d *DB) GetNoteByGUID(ctx context.Context, guid string) (*Note, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT guid, title, notebook_guid, is_active, raw_note FROM notes WHERE guid = ?`, guid)

	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return note, err
}

// GetNoteByTitle loads a backed-up note by exact title, nil when
// absent. When several notes share the title the first one wins and a
// warning is logged.
func (d *DB) GetNoteByTitle(ctx context.Context, title string) (*Note, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT guid, title, notebook_guid, is_active, raw_note FROM notes WHERE title = ? LIMIT 2`, title)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to look up note by title", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to look up note by title", err)
	}

	switch len(notes) {
	case 0:
		return nil, nil
	case 1:
		return notes[0], nil
	default:
		d.logger.WarnWithFields("multiple notes share title, using first", map[string]interface{}{
			"title": title,
		})
		return notes[0], nil
	}
}

// ListNotesInNotebook loads all backed-up notes of one notebook
func (d *DB) ListNotesInNotebook(ctx context.Context, notebookGUID string) ([]*Note, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT guid, title, notebook_guid, is_active, raw_note FROM notes WHERE notebook_guid = ? ORDER BY title`,
		notebookGUID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to list notes", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanNote reads one notes row and decodes its raw_note document
func scanNote(row scanner) (*Note, error) {
	var note Note
	var rawBlob []byte

	err := row.Scan(&note.GUID, &note.Title, &note.NotebookGUID, &note.IsActive, &rawBlob)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to scan note", err)
	}

	if len(rawBlob) > 0 {
		raw, err := DecodeRawNote(rawBlob)
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeParsing,
				fmt.Sprintf("note %s has a corrupt raw_note", note.GUID), err)
		}
		if err := raw.apply(&note); err != nil {
			return nil, err
		}
	}

	return &note, nil
}

// GetPhotoNote loads one inventory row by image key, nil when absent
func (d *DB) GetPhotoNote(ctx context.Context, imageKey string) (*PhotoNote, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT image_key, see_info, reference, guid_note, note_tags, blog_id,
		       need_cleanup, entry_updated, date_verified, photo_id, secret_id,
		       size_suffix, photo_taken, photo_uploaded, is_gone
		FROM flickr_image WHERE image_key = ?`, imageKey)
	return scanPhotoNote(row)
}

// GetPhotoNoteByGUID loads the inventory row bound to a note, nil when
// absent. Used to detect notes that moved or were duplicated.
func (d *DB) GetPhotoNoteByGUID(ctx context.Context, guid string) (*PhotoNote, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT image_key, see_info, reference, guid_note, note_tags, blog_id,
		       need_cleanup, entry_updated, date_verified, photo_id, secret_id,
		       size_suffix, photo_taken, photo_uploaded, is_gone
		FROM flickr_image WHERE guid_note = ?`, guid)
	return scanPhotoNote(row)
}

// ListPhotoNotesForBlog loads all inventory rows of one blog
func (d *DB) ListPhotoNotesForBlog(ctx context.Context, blogID string) ([]*PhotoNote, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT image_key, see_info, reference, guid_note, note_tags, blog_id,
		       need_cleanup, entry_updated, date_verified, photo_id, secret_id,
		       size_suffix, photo_taken, photo_uploaded, is_gone
		FROM flickr_image WHERE blog_id = ? ORDER BY image_key`, blogID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to list photo notes", err)
	}
	defer rows.Close()

	var notes []*PhotoNote
	for rows.Next() {
		note, err := scanPhotoNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func scanPhotoNote(row scanner) (*PhotoNote, error) {
	var pn PhotoNote
	err := row.Scan(
		&pn.ImageKey, &pn.SeeInfo, &pn.Reference, &pn.GUIDNote, &pn.NoteTags,
		&pn.BlogID, &pn.NeedCleanup, &pn.EntryUpdated, &pn.DateVerified,
		&pn.PhotoID, &pn.SecretID, &pn.SizeSuffix, &pn.PhotoTaken,
		&pn.PhotoUploaded, &pn.IsGone,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to scan photo note", err)
	}
	return &pn, nil
}

// UpsertPhotoNote writes an inventory row, stamping entry_updated with
// the current date
func (d *DB) UpsertPhotoNote(ctx context.Context, pn *PhotoNote) error {
	pn.EntryUpdated = NewDate(d.now())

	_, err := d.db.ExecContext(ctx, `
		REPLACE INTO flickr_image (
			image_key, see_info, reference, guid_note, note_tags, blog_id,
			need_cleanup, entry_updated, date_verified, photo_id, secret_id,
			size_suffix, photo_taken, photo_uploaded, is_gone
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pn.ImageKey, pn.SeeInfo, pn.Reference, pn.GUIDNote, pn.NoteTags,
		pn.BlogID, pn.NeedCleanup, pn.EntryUpdated, pn.DateVerified,
		pn.PhotoID, pn.SecretID, pn.SizeSuffix, pn.PhotoTaken,
		pn.PhotoUploaded, pn.IsGone,
	)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeDatabase,
			fmt.Sprintf("failed to save photo note %s", pn.ImageKey), err)
	}
	return nil
}

// GetBlog loads one blog row by id, nil when absent
func (d *DB) GetBlog(ctx context.Context, blogID string) (*PhotoBlog, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT blog_id, guid_note, entry_updated, date_verified, image_count,
		       favorite, last_upload, is_gone
		FROM flickr_blog WHERE blog_id = ?`, blogID)
	return scanBlog(row)
}

// GetBlogByGUID loads the blog row bound to a note, nil when absent
func (d *DB) GetBlogByGUID(ctx context.Context, guid string) (*PhotoBlog, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT blog_id, guid_note, entry_updated, date_verified, image_count,
		       favorite, last_upload, is_gone
		FROM flickr_blog WHERE guid_note = ?`, guid)
	return scanBlog(row)
}

func scanBlog(row scanner) (*PhotoBlog, error) {
	var pb PhotoBlog
	err := row.Scan(
		&pb.BlogID, &pb.GUIDNote, &pb.EntryUpdated, &pb.DateVerified,
		&pb.ImageCount, &pb.Favorite, &pb.LastUpload, &pb.IsGone,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeDatabase, "failed to scan blog", err)
	}
	return &pb, nil
}

// UpsertBlog writes a blog row, stamping entry_updated with the
// current date
func (d *DB) UpsertBlog(ctx context.Context, pb *PhotoBlog) error {
	pb.EntryUpdated = NewDate(d.now())

	_, err := d.db.ExecContext(ctx, `
		REPLACE INTO flickr_blog (
			blog_id, guid_note, entry_updated, date_verified, image_count,
			favorite, last_upload, is_gone
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pb.BlogID, pb.GUIDNote, pb.EntryUpdated, pb.DateVerified,
		pb.ImageCount, pb.Favorite, pb.LastUpload, pb.IsGone,
	)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeDatabase,
			fmt.Sprintf("failed to save blog %s", pb.BlogID), err)
	}
	return nil
}

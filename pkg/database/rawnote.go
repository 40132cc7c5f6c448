package database

import (
	"bytes"
	"compress/zlib"
	"encoding/xml"
	"io"
	"time"

	"photonotes/pkg/errors"
)

// noteTimeLayout is the timestamp format of the note export dialect
const noteTimeLayout = "20060102T150405Z"

// RawNote is the note document the backup tool stores zlib-deflated in
// the notes.raw_note column: the <note> fragment of an export file.
type RawNote struct {
	XMLName xml.Name `xml:"note"`
	Title   string   `xml:"title"`
	Content string   `xml:"content"`
	Created string   `xml:"created,omitempty"`
	Updated string   `xml:"updated,omitempty"`
	Deleted string   `xml:"deleted,omitempty"`
	Tags    []string `xml:"tag"`
}

// DecodeRawNote inflates and parses a raw_note blob. A corrupt blob is
// a data error: the backup is the source of truth and guessing around
// it would let bad rows through silently.
func DecodeRawNote(blob []byte) (*RawNote, error) {
	zr, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, "raw_note is not a zlib stream", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, "failed to inflate raw_note", err)
	}

	var note RawNote
	if err := xml.Unmarshal(data, &note); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, "failed to parse raw_note document", err)
	}
	return &note, nil
}

// EncodeRawNote deflates a note document into the stored blob form.
// The backup tool is the usual writer; photonotes needs this for test
// fixtures only.
func EncodeRawNote(note *RawNote) ([]byte, error) {
	data, err := xml.Marshal(note)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, "failed to marshal raw_note document", err)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, "failed to deflate raw_note", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, "failed to deflate raw_note", err)
	}
	return buf.Bytes(), nil
}

// FormatNoteTime renders a timestamp in the export dialect, empty for
// the zero time so omitempty drops absent fields
func FormatNoteTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(noteTimeLayout)
}

// parseNoteTime parses an export timestamp, zero time for empty input
func parseNoteTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(noteTimeLayout, s)
}

// apply copies the decoded document fields onto a Note row
func (r *RawNote) apply(note *Note) error {
	note.Tags = r.Tags
	note.Content = r.Content

	created, err := parseNoteTime(r.Created)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeParsing, "invalid created timestamp in raw_note", err)
	}
	updated, err := parseNoteTime(r.Updated)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeParsing, "invalid updated timestamp in raw_note", err)
	}
	deleted, err := parseNoteTime(r.Deleted)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeParsing, "invalid deleted timestamp in raw_note", err)
	}

	note.Created = created
	note.Updated = updated
	note.Deleted = deleted
	return nil
}

package database

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// dateLayout is the day-resolution format the backup tool stores in
// TEXT columns
const dateLayout = "2006-01-02"

// Date is a nullable calendar date stored as ISO-8601 text (YYYY-MM-DD)
type Date struct {
	Time  time.Time
	Valid bool
}

// NewDate builds a Date from a time, truncated to the day
func NewDate(t time.Time) Date {
	return Date{
		Time:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}

// Today returns the current date
func Today() Date {
	return NewDate(time.Now())
}

// ParseDate parses a YYYY-MM-DD string; empty input is a null date
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t, Valid: true}, nil
}

// String renders the date as YYYY-MM-DD, empty when null
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}

// DaysAgo reports how many whole days have passed since the date
func (d Date) DaysAgo(now time.Time) int {
	if !d.Valid {
		return -1
	}
	return int(now.Sub(d.Time).Hours() / 24)
}

// Scan implements sql.Scanner
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

// Value implements driver.Valuer; null dates store as NULL
func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.String(), nil
}

// ImageKey builds the inventory key for a photo: "<owner>|<photo_id>".
// The owner part is whatever segment the photo URL carried, so it is
// the path alias for renamed accounts and the NSID otherwise.
func ImageKey(ownerID, photoID string) string {
	return ownerID + "|" + photoID
}

// Notebook is a row of the backup tool's notebooks table (read-only)
type Notebook struct {
	GUID  string
	Name  string
	Stack string
}

// Note is a backed-up note, joined with the fields decoded from its
// compressed raw_note document. Photonotes never writes the notes table.
type Note struct {
	GUID         string
	Title        string
	NotebookGUID string
	IsActive     bool

	// Decoded from raw_note
	Tags    []string
	Content string
	Created time.Time
	Updated time.Time
	// Deleted is zero for notes that were never moved to the trash
	Deleted time.Time
}

// HasTag reports whether the note carries the given tag
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PhotoNote is one row of the tool-owned flickr_image inventory
type PhotoNote struct {
	ImageKey      string
	SeeInfo       string
	Reference     string
	GUIDNote      string
	NoteTags      string
	BlogID        string
	NeedCleanup   string
	EntryUpdated  Date
	DateVerified  Date
	PhotoID       string
	SecretID      string
	SizeSuffix    string
	PhotoTaken    Date
	PhotoUploaded Date
	IsGone        bool
}

// PhotoBlog is one row of the tool-owned flickr_blog inventory; a blog
// is the per-owner note collecting that owner's images
type PhotoBlog struct {
	BlogID       string
	GUIDNote     string
	EntryUpdated Date
	DateVerified Date
	ImageCount   int
	Favorite     bool
	LastUpload   Date
	IsGone       bool
}

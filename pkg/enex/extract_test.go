package enex

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photonotes/pkg/database"
)

func TestExportNote(t *testing.T) {
	note := &database.Note{
		GUID:    "guid-1",
		Title:   "Dunes & dust <draft>",
		Content: `<?xml version="1.0"?><en-note><div>body</div></en-note>`,
		Tags:    []string{"flickr-image", "image"},
		Created: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Updated: time.Date(2024, 7, 2, 11, 30, 0, 0, time.UTC),
	}

	document, err := ExportNote(note)
	require.NoError(t, err)

	assert.Contains(t, document, `export-date="20240702T113000Z"`)
	assert.Contains(t, document, "<created>20240601T100000Z</created>")
	assert.Contains(t, document, "<updated>20240702T113000Z</updated>")
	assert.Contains(t, document, "<tag>flickr-image</tag>")
	assert.Contains(t, document, "<title>Dunes &amp; dust &lt;draft&gt;</title>")
	assert.Contains(t, document, "<![CDATA[")

	var parsed struct {
		Note struct {
			Title   string   `xml:"title"`
			Content string   `xml:"content"`
			Tags    []string `xml:"tag"`
		} `xml:"note"`
	}
	require.NoError(t, xml.Unmarshal([]byte(document), &parsed))
	assert.Equal(t, note.Title, parsed.Note.Title)
	assert.Equal(t, note.Content, parsed.Note.Content)
	assert.Equal(t, note.Tags, parsed.Note.Tags)
}

func TestExportNoteWithoutTimestamps(t *testing.T) {
	note := &database.Note{
		GUID:    "guid-2",
		Title:   "untitled",
		Content: "<en-note><div>x</div></en-note>",
	}

	document, err := ExportNote(note)
	require.NoError(t, err)

	assert.NotContains(t, document, "<created>")
	assert.NotContains(t, document, "<updated>")
	assert.Contains(t, document, `export-date="2`)
}

func TestExportNoteGuardsCDATA(t *testing.T) {
	note := &database.Note{
		Title:   "tricky",
		Content: "<en-note><div>a]]>b</div></en-note>",
	}

	document, err := ExportNote(note)
	require.NoError(t, err)
	assert.NotContains(t, document, "a]]>b")

	var parsed struct {
		Note struct {
			Content string `xml:"content"`
		} `xml:"note"`
	}
	require.NoError(t, xml.Unmarshal([]byte(document), &parsed))
	assert.Equal(t, note.Content, parsed.Note.Content)
}

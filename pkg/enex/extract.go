package enex

import (
	"strings"
	"time"

	"photonotes/pkg/database"
)

const enexHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
	`<!DOCTYPE en-export SYSTEM "http://xml.evernote.com/pub/evernote-export4.dtd">` + "\n"

// ExportNote wraps a backed-up note into a single-note export document
// so it can be re-imported into Evernote.
func ExportNote(note *database.Note) (string, error) {
	exportDate := database.FormatNoteTime(note.Updated)
	if exportDate == "" {
		exportDate = database.FormatNoteTime(time.Now().UTC())
	}

	var out strings.Builder
	out.WriteString(enexHeader)
	out.WriteString(`<en-export export-date="` + exportDate + `" application="Evernote" version="10.10.5">` + "\n")
	out.WriteString("<note>\n")
	out.WriteString("<title>" + QuoteXML(note.Title) + "</title>\n")
	if created := database.FormatNoteTime(note.Created); created != "" {
		out.WriteString("<created>" + created + "</created>\n")
	}
	if updated := database.FormatNoteTime(note.Updated); updated != "" {
		out.WriteString("<updated>" + updated + "</updated>\n")
	}
	for _, tag := range note.Tags {
		out.WriteString("<tag>" + QuoteXML(tag) + "</tag>\n")
	}
	// a CDATA close inside the content would end the section early
	content := strings.ReplaceAll(note.Content, "]]>", "]]]]><![CDATA[>")
	out.WriteString("<content><![CDATA[" + content + "]]></content>\n")
	out.WriteString("</note>\n")
	out.WriteString("</en-export>\n")

	document := out.String()
	if err := ValidateContent(document); err != nil {
		return "", err
	}
	return document, nil
}

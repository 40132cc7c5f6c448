package enex

import (
	"encoding/xml"
	"io"
	"strings"

	"photonotes/pkg/errors"
	"photonotes/pkg/logger"
)

// CleanupDescription rewrites a Flickr photo or profile description for
// the note body. Blank lines become <br/> breaks and HTML anchors are
// replaced with highlighted markdown-style links, keeping the rest of
// the markup as-is. The result is the full note-description div.
func CleanupDescription(desc string, log logger.Logger) (string, error) {
	desc = strings.ReplaceAll(desc, "\n\n", "<br/>\n")
	wrapped := `<div class="note-description">` + desc + `</div>`

	decoder := xml.NewDecoder(strings.NewReader(wrapped))
	decoder.Entity = xml.HTMLEntity

	var out strings.Builder
	var pending *xml.StartElement
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(errors.ErrorTypeParsing, "description is not parseable markup", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if pending != nil {
				writeStartTag(&out, *pending, false)
				pending = nil
			}
			if t.Name.Local == "a" {
				label, err := anchorText(decoder)
				if err != nil {
					return "", errors.Wrap(errors.ErrorTypeParsing, "description anchor is not parseable", err)
				}
				writeMarkupLink(&out, label, attrValue(t.Attr, "href"))
				log.Debug("replaced description anchor with markup link")
				continue
			}
			start := t.Copy()
			pending = &start
		case xml.EndElement:
			if pending != nil {
				writeStartTag(&out, *pending, true)
				pending = nil
				continue
			}
			out.WriteString("</" + t.Name.Local + ">")
		case xml.CharData:
			if pending != nil {
				writeStartTag(&out, *pending, false)
				pending = nil
			}
			out.WriteString(QuoteXML(string(t)))
		}
	}
	return out.String(), nil
}

// anchorText consumes tokens through the matching </a> and returns the
// flattened text. Nested markup inside the anchor is dropped.
func anchorText(decoder *xml.Decoder) (string, error) {
	var text strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			text.Write(t)
		}
	}
	return text.String(), nil
}

func writeMarkupLink(out *strings.Builder, label, href string) {
	label = strings.TrimSpace(label)
	if label == "" || label == href {
		label = "link"
	}
	out.WriteString(`<span style="--en-highlight:blue"><br/>[`)
	out.WriteString(QuoteXML(label))
	out.WriteString(`](`)
	out.WriteString(QuoteXML(href))
	out.WriteString(`)<br/></span>`)
}

func writeStartTag(out *strings.Builder, el xml.StartElement, selfClose bool) {
	out.WriteByte('<')
	out.WriteString(el.Name.Local)
	for _, a := range el.Attr {
		out.WriteByte(' ')
		out.WriteString(a.Name.Local)
		out.WriteString(`="`)
		out.WriteString(strings.ReplaceAll(QuoteXML(a.Value), `"`, "&quot;"))
		out.WriteString(`"`)
	}
	if selfClose {
		out.WriteString("/>")
		return
	}
	out.WriteByte('>')
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

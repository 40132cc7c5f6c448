package enex

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"photonotes/pkg/errors"
	"photonotes/pkg/logger"
)

var placeholderPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// FromTemplate substitutes every ${key} occurrence in the template with
// the matching parameter value. Values are inserted verbatim, so markup
// parameters stay markup and text parameters must already be XML-quoted.
// Placeholders without a parameter are left in place and logged.
func FromTemplate(template string, params map[string]string, log logger.Logger) string {
	result := template
	for key, value := range params {
		result = strings.ReplaceAll(result, "${"+key+"}", value)
	}

	for _, match := range placeholderPattern.FindAllStringSubmatch(result, -1) {
		log.WarnWithFields("template placeholder not substituted", map[string]interface{}{
			"placeholder": match[1],
		})
	}
	return result
}

// QuoteXML escapes the characters that break XML text content.
func QuoteXML(value string) string {
	value = strings.ReplaceAll(value, "&", "&amp;")
	value = strings.ReplaceAll(value, "<", "&lt;")
	value = strings.ReplaceAll(value, ">", "&gt;")
	return value
}

// ValidateContent re-parses a rendered document and reports anything a
// strict XML reader would choke on. HTML entities are accepted because
// note content routinely carries &nbsp; and friends.
func ValidateContent(content string) error {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.Entity = xml.HTMLEntity

	depth := 0
	roots := 0
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(errors.ErrorTypeParsing, "rendered document is not well-formed XML", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return errors.New(errors.ErrorTypeParsing, "rendered document has text outside the root element")
			}
		}
	}
	if roots == 0 {
		return errors.New(errors.ErrorTypeParsing, "rendered document has no root element")
	}
	if roots > 1 {
		return errors.New(errors.ErrorTypeParsing, "rendered document has multiple root elements")
	}
	return nil
}

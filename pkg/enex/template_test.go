package enex

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photonotes/pkg/errors"
	"photonotes/pkg/logger"
)

func TestFromTemplate(t *testing.T) {
	log := logger.NewTestLogger()

	result := FromTemplate("<div>${title} by ${owner} (${title})</div>", map[string]string{
		"title": "Sunrise",
		"owner": "janedoe",
	}, log)

	assert.Equal(t, "<div>Sunrise by janedoe (Sunrise)</div>", result)
	assert.False(t, log.HasMessage("template placeholder not substituted"))
}

func TestFromTemplateUnresolvedPlaceholder(t *testing.T) {
	log := logger.NewTestLogger()

	result := FromTemplate("<div>${title} ${missing}</div>", map[string]string{
		"title": "Sunrise",
	}, log)

	assert.Equal(t, "<div>Sunrise ${missing}</div>", result)
	assert.True(t, log.HasMessage("template placeholder not substituted"))
}

func TestQuoteXML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ampersand", "Tom & Jerry", "Tom &amp; Jerry"},
		{"angle brackets", "a <b> c", "a &lt;b&gt; c"},
		{"clean text", "nothing to do", "nothing to do"},
		{"mixed", "x<&>y", "x&lt;&amp;&gt;y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteXML(tt.input))
		})
	}
}

// Escaped titles must read back as the original text once the XML layer
// decodes them.
func TestQuoteXMLRoundTrip(t *testing.T) {
	original := `B&W study <unfinished> & more`

	doc := "<title>" + QuoteXML(original) + "</title>"
	var decoded struct {
		Text string `xml:",chardata"`
	}
	require.NoError(t, xml.Unmarshal([]byte(doc), &decoded))
	assert.Equal(t, original, decoded.Text)
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name: "valid note body",
			content: `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd">
<en-note><div>hello&nbsp;world</div></en-note>`,
			wantErr: false,
		},
		{"unclosed element", "<en-note><div>oops</en-note>", true},
		{"multiple roots", "<div>a</div><div>b</div>", true},
		{"text outside root", "<div>a</div> trailing", true},
		{"empty document", "", true},
		{"plain text only", "no markup at all", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.content)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1.000"},
		{54321, "54.321"},
		{1234567, "1.234.567"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCount(tt.n))
		})
	}
}

func TestDraftSetters(t *testing.T) {
	d := NewDraft()
	d.Set("raw", "<b>kept</b>")
	d.SetQuoted("quoted", "a < b & c")
	d.SetInt("count", 42)

	assert.Equal(t, "<b>kept</b>", d.Get("raw"))
	assert.Equal(t, "a &lt; b &amp; c", d.Get("quoted"))
	assert.Equal(t, "42", d.Get("count"))
	assert.Len(t, d.Params(), 3)
	assert.Empty(t, d.Get("absent"))
}

func TestValidateContentAcceptsCDATA(t *testing.T) {
	content := "<note><content><![CDATA[<en-note><div>x</div></en-note>]]></content></note>"
	assert.NoError(t, ValidateContent(content))
}

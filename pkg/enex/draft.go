package enex

import "strconv"

// Draft collects the substitution values for one note before rendering.
// Values are stored as strings because the templates know nothing about
// types; numeric and quoted setters exist for convenience.
type Draft struct {
	params map[string]string
}

func NewDraft() *Draft {
	return &Draft{params: make(map[string]string)}
}

// Set stores a raw value. Markup fragments and values that are already
// XML-quoted belong here.
func (d *Draft) Set(key, value string) {
	d.params[key] = value
}

// SetQuoted stores a plain-text value with XML escaping applied.
func (d *Draft) SetQuoted(key, value string) {
	d.params[key] = QuoteXML(value)
}

// SetInt stores a numeric value.
func (d *Draft) SetInt(key string, value int) {
	d.params[key] = strconv.Itoa(value)
}

func (d *Draft) Get(key string) string {
	return d.params[key]
}

// Params returns the live parameter map shared with the renderer.
func (d *Draft) Params() map[string]string {
	return d.params
}

// FormatCount renders a count with dots as thousands separators, the way
// the note bodies show album and group sizes.
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	start := 0
	if n < 0 {
		start = 1
	}
	for i := len(s) - 3; i > start; i -= 3 {
		s = s[:i] + "." + s[i:]
	}
	return s
}

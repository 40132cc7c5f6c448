package enex

import (
	"fmt"
	"strings"

	"photonotes/pkg/errors"
)

// ErrUnknownLicense marks a license code outside the known mapping.
// Shipping a note with a wrong license line is worse than failing, so
// callers treat this as fatal for the photo.
var ErrUnknownLicense = &errors.Error{
	Type:    errors.ErrorTypeLicense,
	Message: "unknown license code",
}

// licenseLabels maps Flickr license codes to display labels. Retired and
// unassigned codes are absent on purpose.
var licenseLabels = map[string]string{
	"0":  "All Rights reserved",
	"1":  "CC BY-NC-SA 2.0",
	"2":  "CC BY-NC 2.0",
	"3":  "CC BY-NC-ND 2.0",
	"4":  "CC BY 2.0",
	"5":  "CC BY-SA 2.0",
	"9":  "CC0 1.0 Public Domain",
	"10": "Public Domain Mark 1.0",
}

// License describes how one Flickr license code renders in a note.
type License struct {
	Code  string
	Label string
}

// LookupLicense resolves a Flickr license code to its note rendering.
func LookupLicense(code string) (*License, error) {
	label, ok := licenseLabels[code]
	if !ok {
		return nil, errors.Wrap(errors.ErrorTypeLicense, fmt.Sprintf("license code %q is not mapped", code), ErrUnknownLicense)
	}
	return &License{Code: code, Label: label}, nil
}

// Open reports whether the photo carries anything other than the
// default all-rights-reserved license.
func (l *License) Open() bool {
	return l.Code != "0"
}

// Info returns the label, with the numeric code appended for open
// licenses.
func (l *License) Info() string {
	if !l.Open() {
		return l.Label
	}
	return fmt.Sprintf("%s (License Type %s)", l.Label, l.Code)
}

// Text returns the license line for the note body, empty for the
// default license.
func (l *License) Text() string {
	if !l.Open() {
		return ""
	}
	return "License: " + l.Info()
}

// Tags returns the extra note tags an open license adds.
func (l *License) Tags() []string {
	if !l.Open() {
		return nil
	}
	tag := strings.ReplaceAll(l.Label, "CC ", "CC_")
	tag = strings.ReplaceAll(tag, " ", "")
	return []string{"freepic", "license-" + tag}
}

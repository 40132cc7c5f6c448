package flickr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "photonotes/pkg/errors"
)

const (
	// BaseURL is the Flickr REST endpoint
	BaseURL = "https://api.flickr.com/services/rest/"

	// WebBaseURL is the public photo site
	WebBaseURL = "https://www.flickr.com"

	// DefaultPageSize is the stream page size (Flickr's maximum)
	DefaultPageSize = 500

	// DefaultCallsPerHour matches Flickr's documented per-key quota
	DefaultCallsPerHour = 3600
)

// REST method names
const (
	methodLookupUser    = "flickr.urls.lookupUser"
	methodPeopleInfo    = "flickr.people.getInfo"
	methodPeoplePhotos  = "flickr.people.getPhotos"
	methodPhotoInfo     = "flickr.photos.getInfo"
	methodPhotoSizes    = "flickr.photos.getSizes"
	methodPhotoContexts = "flickr.photos.getAllContexts"
	methodGeoLocation   = "flickr.photos.geo.getLocation"
	methodPhotosetsList = "flickr.photosets.getList"
	methodGalleriesList = "flickr.galleries.getList"
	methodTestLogin     = "flickr.test.login"
)

// URLKind says what a parsed Flickr URL refers to
type URLKind string

const (
	// URLKindPhoto is a single photo page (/photos/<owner>/<id>/)
	URLKindPhoto URLKind = "photo"
	// URLKindPerson is a member page (/people/<owner>/)
	URLKindPerson URLKind = "person"
)

// URLSpec identifies the Flickr entity a command-line URL refers to.
// Owner is the path alias or NSID exactly as present in the URL.
type URLSpec struct {
	Kind    URLKind
	Owner   string
	PhotoID string
	// URL is the input URL with any page-pin suffix stripped
	URL string
	// Page pins the stream walk to one page when the URL carried a
	// ":N" suffix; zero means walk from the newest photo.
	Page int
}

// ParseURL classifies a Flickr URL given on the command line. A trailing
// ":N" (after the URL) pins the photostream page to scan.
func ParseURL(raw string) (*URLSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperrors.New(apperrors.ErrorTypeParsing, "empty Flickr URL")
	}

	page := 0
	if i := strings.LastIndexByte(raw, ':'); i > len("https:") {
		if n, err := strconv.Atoi(raw[i+1:]); err == nil && n > 0 {
			page = n
			raw = raw[:i]
		}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeParsing, "invalid Flickr URL", err)
	}

	host := strings.ToLower(parsed.Hostname())
	if host != "flickr.com" && !strings.HasSuffix(host, ".flickr.com") {
		return nil, apperrors.New(apperrors.ErrorTypeParsing,
			fmt.Sprintf("not a Flickr URL: %s", raw))
	}

	segments := splitPath(parsed.Path)
	if len(segments) < 2 {
		return nil, apperrors.New(apperrors.ErrorTypeParsing,
			fmt.Sprintf("unrecognized Flickr URL: %s", raw))
	}

	switch segments[0] {
	case "photos":
		if len(segments) < 3 {
			return nil, apperrors.New(apperrors.ErrorTypeParsing,
				fmt.Sprintf("photo URL without a photo id: %s", raw))
		}
		photoID := segments[2]
		if !isDigits(photoID) {
			return nil, apperrors.New(apperrors.ErrorTypeParsing,
				fmt.Sprintf("photo URL without a photo id: %s", raw))
		}
		return &URLSpec{Kind: URLKindPhoto, Owner: segments[1], PhotoID: photoID, URL: raw, Page: page}, nil
	case "people":
		return &URLSpec{Kind: URLKindPerson, Owner: segments[1], URL: raw, Page: page}, nil
	default:
		return nil, apperrors.New(apperrors.ErrorTypeParsing,
			fmt.Sprintf("unrecognized Flickr URL: %s", raw))
	}
}

// PhotoPageURL returns the public page URL for a photo
func PhotoPageURL(owner, photoID string) string {
	return fmt.Sprintf("%s/photos/%s/%s/", WebBaseURL, owner, photoID)
}

// PeopleURL returns the public member page URL for an owner
func PeopleURL(owner string) string {
	return fmt.Sprintf("%s/people/%s/", WebBaseURL, owner)
}

// BuddyIconURL returns the avatar URL for a member. Accounts that never
// uploaded an icon are served Flickr's shared default.
func BuddyIconURL(iconFarm int, iconServer, nsid string) string {
	if iconServer == "" || iconServer == "0" {
		return WebBaseURL + "/images/buddyicon.gif"
	}
	return fmt.Sprintf("https://farm%d.staticflickr.com/%s/buddyicons/%s.jpg",
		iconFarm, iconServer, nsid)
}

// IsNSID reports whether s looks like a Flickr member id such as
// "12345678@N00" rather than a path alias
func IsNSID(s string) bool {
	at := strings.IndexByte(s, '@')
	if at < 1 || at+2 >= len(s) {
		return false
	}
	if s[at+1] != 'N' {
		return false
	}
	return isDigits(s[:at]) && isDigits(s[at+2:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

package notes

import (
	"encoding/xml"
	"io"
	"strings"

	"photonotes/pkg/errors"
	"photonotes/pkg/logger"
)

const (
	photoLinkPrefix   = "https://www.flickr.com/photos/"
	profileLinkPrefix = "https://www.flickr.com/people/"
	highlightStyle    = "--en-highlight:yellow"
)

// Outcome classifies one note analysis
type Outcome string

const (
	// OutcomeResolved means the see-info marker and the canonical photo
	// link agree on the photo id
	OutcomeResolved Outcome = "resolved"
	// OutcomeNonCompliant means a photo link exists but the marker rule
	// failed (missing, not highlighted, or naming a different photo)
	OutcomeNonCompliant Outcome = "non_compliant"
	// OutcomeNoCandidate means the note contains no photo link at all
	OutcomeNoCandidate Outcome = "no_candidate"
)

// PhotoLink is one photo-page link found in a note body
type PhotoLink struct {
	ImageKey string
	BlogID   string
	PhotoID  string
	Context  string
	Href     string
}

// Analysis is the result of one note-content analysis. Link is the
// canonical photo link: the first one after the thumbnail when the note
// has one, otherwise the last photo link seen. StreamOwner is the owner
// segment of the first photostream or profile link; blog notes carry
// one in their header.
type Analysis struct {
	SeeInfo     string
	StreamOwner string
	Link        *PhotoLink
	Links       []*PhotoLink
	Warnings    *Warnings
}

// Outcome classifies the analysis per the two-rule heuristic
func (a *Analysis) Outcome() Outcome {
	if a.Link == nil {
		return OutcomeNoCandidate
	}
	if a.SeeInfo != "" && strings.Contains(a.SeeInfo, a.Link.PhotoID) {
		return OutcomeResolved
	}
	return OutcomeNonCompliant
}

// Analyzer applies the note-content heuristics: the see-info marker
// rule and the photo-link rule. Notes that fail a rule are reported,
// never guessed at.
type Analyzer struct {
	logger        logger.Logger
	warnHTTPLinks bool
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Analyzer{logger: log}
}

// SetWarnHTTPLinks enables warnings for plain-http photo links that
// appear before the thumbnail (links after it belong to the photo
// description and are not ours to fix)
func (a *Analyzer) SetWarnHTTPLinks(warn bool) {
	a.warnHTTPLinks = warn
}

// Analyze parses the note body and applies both heuristic rules.
// Malformed XML is a data error; the backup content is the source of
// truth, so nothing is repaired here.
func (a *Analyzer) Analyze(content string) (*Analysis, error) {
	root, err := parseContent(content)
	if err != nil {
		return nil, err
	}

	warnings := NewWarnings()
	analysis := &Analysis{Warnings: warnings}
	analysis.SeeInfo = a.extractSee(root, warnings)
	a.collectLinks(root, analysis, warnings)

	if analysis.Link != nil {
		if analysis.SeeInfo == "" {
			a.logger.DebugWithFields("missing see-info for photo note", map[string]interface{}{
				"photo_id": analysis.Link.PhotoID,
			})
		} else if !strings.Contains(analysis.SeeInfo, analysis.Link.PhotoID) {
			a.logger.WarnWithFields("see-info not related to linked photo", map[string]interface{}{
				"photo_id": analysis.Link.PhotoID,
				"see_info": analysis.SeeInfo,
			})
			warnings.Add("see-info mismatch with image link", analysis.SeeInfo, "")
		}
	}

	return analysis, nil
}

// extractSee finds the see-info marker divs and returns the highlighted
// reference, empty when the marker rule fails
func (a *Analyzer) extractSee(root *node, warnings *Warnings) string {
	var seeDivs []*node
	for _, div := range root.findAll("div") {
		if hasSeeMarker(div.directText()) {
			seeDivs = append(seeDivs, div)
		}
	}
	if len(seeDivs) == 0 {
		warnings.Add("cleanup required", "missing see-info", "")
		return ""
	}

	var found []string
	var highlighted []string
	for _, div := range seeDivs {
		info := a.seeText(div, warnings)
		if info == "" {
			warnings.Add("cleanup required", "highlight on whitespaces in see-info", "")
			continue
		}
		found = append(found, info)
		if !strings.HasPrefix(info, "+") {
			highlighted = append(highlighted, info)
		}
	}

	if len(highlighted) > 1 {
		warnings.Add("cleanup required", "more than one highlighted see-info", "")
		return highlighted[len(highlighted)-1]
	}
	if len(highlighted) == 1 {
		return highlighted[0]
	}

	if len(found) > 0 {
		last := found[len(found)-1]
		if last == "+(not archived)" || last == "+-NA-" {
			a.logger.DebugWithFields("note has no archived image", map[string]interface{}{
				"see_info": last[1:],
			})
			return ""
		}
	}

	a.logger.WarnWithFields("missing highlighted see-info", map[string]interface{}{
		"see_entries": strings.Join(found, "; "),
	})
	warnings.Add("cleanup required", "see-info not highlighted", "")
	return ""
}

// seeText reads one see-div. Highlighted divs yield the span text;
// divs without a highlight are stacked entries and come back prefixed
// with "+". Empty return means a highlight holding only whitespace.
func (a *Analyzer) seeText(div *node, warnings *Warnings) string {
	spans := highlightSpans(div)
	if len(spans) > 0 {
		if len(spans) > 1 {
			warnings.Add("cleanup required", "multiple highlights in see-info", "")
			a.logger.WarnWithFields("multiple highlight sections in see-info", map[string]interface{}{
				"see_div": div.text(),
			})
		}
		return strings.TrimSpace(spans[0].text())
	}

	// stacked see-info without highlight
	info := strings.TrimSpace(strings.TrimPrefix(div.text(), "see:"))
	if i := strings.IndexByte(info, '|'); i >= 0 {
		info = strings.TrimSpace(info[:i])
	}
	if info == "" {
		info = " (no text)"
	}
	return "+" + info
}

// collectLinks walks all anchors in document order, applying the link
// rewrites and skip rules, and settles on the canonical photo link
func (a *Analyzer) collectLinks(root *node, analysis *Analysis, warnings *Warnings) {
	links := make(map[string]*PhotoLink)
	var order []string
	var lastLink *PhotoLink

	for _, anchor := range collectAnchors(root) {
		href := anchor.node.attr("href")
		if href == "" || !strings.Contains(href, "flickr.com") {
			continue
		}
		text := anchor.node.text()

		if strings.HasPrefix(href, "http://www.flickr.com/") {
			// links after the thumbnail come from the photo description
			if !anchor.afterMedia && a.warnHTTPLinks {
				warnings.Add("found non-https link", text, href)
			}
			href = "https://www.flickr.com/" + href[len("http://www.flickr.com/"):]
		}
		if strings.HasPrefix(href, "https://secure.flickr.com/") {
			warnings.Add("found secure link", text, href)
			href = "https://www.flickr.com/" + href[len("https://secure.flickr.com/"):]
		}

		if strings.HasPrefix(href, "https://www.flickr.com/photos/tags/") {
			continue
		}
		if containsCollectionPath(href) {
			if !isStandardCollectionLink(href) {
				a.logger.WarnWithFields("ignoring non-standard collection link", map[string]interface{}{
					"href": href,
				})
			}
			continue
		}

		if strings.HasPrefix(href, photoLinkPrefix) {
			link := a.parsePhotoLink(href)
			if link == nil {
				// a photostream link still names the stream owner
				if analysis.StreamOwner == "" {
					analysis.StreamOwner = ownerSegment(href)
				}
				a.logger.DebugWithFields("ignoring link without photo id", map[string]interface{}{
					"href": href,
				})
				continue
			}

			if prev, ok := links[link.ImageKey]; ok {
				mergeContext(prev, link)
			} else {
				order = append(order, link.ImageKey)
			}
			links[link.ImageKey] = link
			lastLink = link

			if anchor.afterMedia {
				// first photo link after the thumbnail is the canonical
				// one; everything later belongs to the description
				break
			}
			continue
		}

		if isIgnorableLink(href) {
			if analysis.StreamOwner == "" && strings.HasPrefix(href, profileLinkPrefix) {
				analysis.StreamOwner = ownerSegment(href)
			}
			continue
		}
		warnings.Add("ignored href", text, href)
	}

	analysis.Link = lastLink
	for _, key := range order {
		analysis.Links = append(analysis.Links, links[key])
	}
}

// parsePhotoLink splits a photo-page link into its identifying parts.
// Links that identify no single photo (blog pages, photostream urls)
// yield nil.
func (a *Analyzer) parsePhotoLink(href string) *PhotoLink {
	rest := strings.TrimPrefix(href, photoLinkPrefix)
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[1] == "" {
		return nil
	}

	link := &PhotoLink{
		ImageKey: parts[0] + "|" + parts[1],
		BlogID:   parts[0],
		PhotoID:  parts[1],
		Href:     href,
	}

	if len(parts) == 3 && (parts[2] == "" || parts[2] == "#") {
		parts = parts[:2]
	}
	if len(parts) > 2 {
		switch parts[2] {
		case "in":
			if len(parts) > 3 {
				context := parts[3]
				if strings.HasPrefix(context, "photolist-") {
					// photolist contexts can get very long, keep the prefix
					context = "photolist"
				}
				link.Context = context
			}
		case "undefined", "":
			// undefined was a web-clipper bug, empty is a trailing slash
		default:
			// e.g. /sizes/l/ or /with/<id>/
			a.logger.InfoWithFields("no context detected for photo link", map[string]interface{}{
				"href": href,
			})
		}
	}
	return link
}

// mergeContext reconciles contexts of repeated links to the same
// photo; the earliest non-empty context wins
func mergeContext(prev, next *PhotoLink) {
	if prev.Context == next.Context {
		return
	}
	if prev.Context == "" {
		prev.Context = next.Context
	} else {
		next.Context = prev.Context
	}
}

func hasSeeMarker(directText string) bool {
	idx := strings.Index(directText, "see:")
	return idx >= 0 && idx+len("see:") < len(directText)
}

func containsCollectionPath(href string) bool {
	return strings.Contains(href, "/sets/") ||
		strings.Contains(href, "/albums/") ||
		strings.Contains(href, "/galleries/")
}

// isStandardCollectionLink checks the collection keyword sits at the
// expected path position, e.g. https://www.flickr.com/photos/<owner>/albums/<id>
func isStandardCollectionLink(href string) bool {
	parts := strings.Split(href, "/")
	if len(parts) < 6 {
		return false
	}
	switch parts[5] {
	case "sets", "albums", "galleries":
		return true
	}
	return false
}

// ownerSegment returns the first path element after a photostream or
// profile prefix, empty when the link carries none
func ownerSegment(href string) string {
	rest := strings.TrimPrefix(href, photoLinkPrefix)
	rest = strings.TrimPrefix(rest, profileLinkPrefix)
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

var ignoredLinkPrefixes = []string{
	"https://www.flickr.com/search/",
	"https://flickr.com/groups",
	"https://www.flickr.com/map/",
	"https://www.flickr.com/groups/",
	"https://www.flickr.com/people/",
	"https://www.flickr.com/explore/",
	"https://www.flickr.com/redirect?url=",
	"https://www.flickr.com/account/upgrade/pro",
}

func isIgnorableLink(href string) bool {
	for _, prefix := range ignoredLinkPrefixes {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

// node is a parsed element of the note document
type node struct {
	name     string
	attrs    []xml.Attr
	children []interface{} // *node or string
}

// parseContent tokenizes the ENML body into a node tree. The XML
// declaration and DOCTYPE are skipped; everything else must be
// well-formed.
func parseContent(content string) (*node, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	// note content uses HTML entities such as &nbsp; that plain XML lacks
	decoder.Entity = xml.HTMLEntity

	root := &node{}
	stack := []*node{root}
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeParsing, "note content is not well-formed XML", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Attr}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, string(t))
		}
	}

	if len(root.children) == 0 {
		return nil, errors.New(errors.ErrorTypeParsing, "note content is empty")
	}
	return root, nil
}

func (n *node) attr(name string) string {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// directText concatenates the element's own text children
func (n *node) directText() string {
	var sb strings.Builder
	for _, child := range n.children {
		if s, ok := child.(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// text returns all descendant text, each fragment trimmed, space-joined
func (n *node) text() string {
	var parts []string
	collectText(n, &parts)
	return strings.Join(parts, " ")
}

func collectText(n *node, parts *[]string) {
	for _, child := range n.children {
		switch c := child.(type) {
		case string:
			if s := strings.TrimSpace(c); s != "" {
				*parts = append(*parts, s)
			}
		case *node:
			collectText(c, parts)
		}
	}
}

// findAll returns every descendant element with the given name, in
// document order
func (n *node) findAll(name string) []*node {
	var out []*node
	var walk func(*node)
	walk = func(cur *node) {
		for _, child := range cur.children {
			if c, ok := child.(*node); ok {
				if c.name == name {
					out = append(out, c)
				}
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

// highlightSpans returns the div's direct span children carrying the
// yellow highlight style
func highlightSpans(div *node) []*node {
	var spans []*node
	for _, child := range div.children {
		if c, ok := child.(*node); ok && c.name == "span" {
			if strings.Contains(c.attr("style"), highlightStyle) {
				spans = append(spans, c)
			}
		}
	}
	return spans
}

// anchorRef is an anchor element plus its position relative to the
// note's thumbnail
type anchorRef struct {
	node       *node
	afterMedia bool
}

// collectAnchors returns all anchors in document order, flagging those
// that appear after an en-media element
func collectAnchors(root *node) []anchorRef {
	var anchors []anchorRef
	seenMedia := false
	var walk func(*node)
	walk = func(cur *node) {
		for _, child := range cur.children {
			c, ok := child.(*node)
			if !ok {
				continue
			}
			if c.name == "en-media" {
				seenMedia = true
			}
			if c.name == "a" {
				anchors = append(anchors, anchorRef{node: c, afterMedia: seenMedia})
			}
			walk(c)
		}
	}
	walk(root)
	return anchors
}

package enex

import (
	"strings"

	"golang.org/x/net/html"

	"photonotes/pkg/errors"
	"photonotes/pkg/logger"
)

// CleanupProfile rewrites a Flickr profile description for the blog
// note body. Profile text is arbitrary HTML, so it is parsed
// tolerantly: embedded photo containers, images and content-free divs
// are dropped, newlines become <br/> breaks, and the remaining body
// fragment is returned. Void elements render self-closed, keeping the
// fragment well-formed for the note content.
func CleanupProfile(desc string, log logger.Logger) (string, error) {
	desc = strings.ReplaceAll(desc, "\n", "<br/>")
	doc, err := html.Parse(strings.NewReader(desc))
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeParsing, "profile description is not parseable", err)
	}
	body := findElement(doc, "body")
	if body == nil {
		return "", errors.New(errors.ErrorTypeParsing, "profile description has no body")
	}

	removeNodes(body, func(n *html.Node) bool {
		return n.Data == "span" && strings.Contains(nodeAttr(n, "class"), "photo_container")
	})
	dropped := removeNodes(body, func(n *html.Node) bool {
		return n.Data == "div" && !hasText(n)
	})
	if dropped > 0 {
		log.WithField("count", dropped).Debug("dropped content-free blocks from profile description")
	}
	removeNodes(body, func(n *html.Node) bool {
		return n.Data == "img"
	})

	var out strings.Builder
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		if err := html.Render(&out, child); err != nil {
			return "", errors.Wrap(errors.ErrorTypeParsing, "profile description fragment is not renderable", err)
		}
	}
	return out.String(), nil
}

// findElement returns the first element named name in depth-first order.
func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, name); found != nil {
			return found
		}
	}
	return nil
}

// removeNodes unlinks every element below root matching match and
// returns how many were removed. Children of removed nodes go with them.
func removeNodes(root *html.Node, match func(*html.Node) bool) int {
	removed := 0
	for child := root.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode && match(child) {
			root.RemoveChild(child)
			removed++
		} else {
			removed += removeNodes(child, match)
		}
		child = next
	}
	return removed
}

// hasText reports whether the subtree contains any non-whitespace text.
func hasText(n *html.Node) bool {
	if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
		return true
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if hasText(child) {
			return true
		}
	}
	return false
}

func nodeAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

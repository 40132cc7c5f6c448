package notes

import (
	"fmt"
	"sort"
	"strings"

	"photonotes/pkg/logger"
)

// maxWarningText caps stored warning text length
const maxWarningText = 42

// Warning is one reported irregularity, optionally tied to a link
type Warning struct {
	Href string
	Text string
}

// Warnings accumulates irregularities by category during one note's
// analysis. The category names double as the cleanup markers stored
// with the photo note.
type Warnings struct {
	categories map[string][]Warning
	order      []string
}

// NewWarnings creates an empty accumulator
func NewWarnings() *Warnings {
	return &Warnings{categories: make(map[string][]Warning)}
}

// Add records a warning. Empty texts get a placeholder, overlong texts
// are truncated.
func (w *Warnings) Add(category, text, href string) {
	if text == "" {
		text = "(no text)"
	}
	if runes := []rune(text); len(runes) > maxWarningText {
		text = string(runes[:40]) + "..."
	}
	if _, ok := w.categories[category]; !ok {
		w.order = append(w.order, category)
	}
	w.categories[category] = append(w.categories[category], Warning{Href: href, Text: text})
}

// Len reports the total number of recorded warnings
func (w *Warnings) Len() int {
	n := 0
	for _, entries := range w.categories {
		n += len(entries)
	}
	return n
}

// Categories returns the category names, sorted
func (w *Warnings) Categories() []string {
	cats := make([]string, 0, len(w.categories))
	for c := range w.categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Report logs every category with its most recent entries (at most
// three, plus a count of the rest) and returns the category names as
// cleanup markers.
func (w *Warnings) Report(log logger.Logger, noteRef string) []string {
	for _, category := range w.order {
		entries := w.categories[category]

		var lines []string
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			if entry.Href == "" {
				lines = append(lines, entry.Text)
			} else {
				lines = append(lines, entry.Href+" | "+entry.Text)
			}
			if len(lines) >= 3 && i > 0 {
				lines = append(lines, fmt.Sprintf("... %d more ...", i))
				break
			}
		}

		log.WarnWithFields(category, map[string]interface{}{
			"note":    noteRef,
			"entries": strings.Join(lines, "\n  + "),
		})
	}
	return w.Categories()
}

// Package parser extracts labeled metadata from session Markdown bodies.
//
// Sessions are free text: every section is optional and sections appear
// in no fixed order, so extraction is a set of independent whole-document
// pattern matches rather than a line-oriented parse. Extraction is total;
// absent sections simply yield zero values.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/raido/internal/models"
)

var (
	titleRe   = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	dateRe    = regexp.MustCompile(`\*\*Date:\*\*\s*(\d{4}-\d{2}-\d{2})`)
	startedRe = regexp.MustCompile(`\*\*Started:\*\*\s*([\d:]+)`)
	updatedRe = regexp.MustCompile(`\*\*Last Updated:\*\*\s*([\d:]+)`)

	// Section spans run from the labeled subheading to the next
	// subheading, a blank-line pair, or end of input.
	completedRe = regexp.MustCompile("(?s)### Completed\\s*\n(.*?)(?:###|\n\n|$)")
	progressRe  = regexp.MustCompile("(?s)### In Progress\\s*\n(.*?)(?:###|\n\n|$)")
	notesRe     = regexp.MustCompile("(?s)### Notes for Next Session\\s*\n(.*?)(?:###|\n\n|$)")
	contextRe   = regexp.MustCompile("(?s)### Context to Load\\s*\n```\n(.*?)```")

	checkedItemRe   = regexp.MustCompile(`- \[x\]\s*(.+)`)
	uncheckedItemRe = regexp.MustCompile(`- \[ \]\s*(.+)`)
)

// Extract parses a session body into structured metadata. It never
// fails: an empty body yields the zero metadata.
func Extract(body string) models.SessionMetadata {
	md := models.SessionMetadata{
		Completed:  []string{},
		InProgress: []string{},
	}
	if body == "" {
		return md
	}

	if m := titleRe.FindStringSubmatch(body); m != nil {
		md.Title = strings.TrimSpace(m[1])
	}
	if m := dateRe.FindStringSubmatch(body); m != nil {
		md.Date = m[1]
	}
	if m := startedRe.FindStringSubmatch(body); m != nil {
		md.Started = m[1]
	}
	if m := updatedRe.FindStringSubmatch(body); m != nil {
		md.LastUpdated = m[1]
	}

	if m := completedRe.FindStringSubmatch(body); m != nil {
		md.Completed = extractItems(m[1], checkedItemRe)
	}
	if m := progressRe.FindStringSubmatch(body); m != nil {
		md.InProgress = extractItems(m[1], uncheckedItemRe)
	}
	if m := notesRe.FindStringSubmatch(body); m != nil {
		md.Notes = strings.TrimSpace(m[1])
	}
	if m := contextRe.FindStringSubmatch(body); m != nil {
		md.Context = strings.TrimSpace(m[1])
	}

	return md
}

// extractItems pulls checklist entries out of a section span, marker
// stripped and trimmed.
func extractItems(section string, itemRe *regexp.Regexp) []string {
	matches := itemRe.FindAllStringSubmatch(section, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

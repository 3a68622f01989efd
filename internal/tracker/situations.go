package tracker

import (
	"fmt"
	"strings"

	"github.com/obatracker-data/pkg/onebusaway/models"
)

// Situation is one service disruption affecting a stop. Text fields hold
// the raw API values; sanitization happens at render time so stored state
// stays diffable against the source.
type Situation struct {
	ID          string
	Severity    string
	Reason      string
	Summary     string
	Description string
	URL         string
}

// ExtractSituations flattens the payload's situation references, keeping
// their order.
func ExtractSituations(situations []models.Situation) []Situation {
	out := make([]Situation, 0, len(situations))
	for _, s := range situations {
		out = append(out, Situation{
			ID:          s.ID,
			Severity:    s.Severity,
			Reason:      s.Reason,
			Summary:     s.Summary.Value,
			Description: s.Description.Value,
			URL:         s.URL.Value,
		})
	}
	return out
}

// RenderSituations renders every situation into one markdown document,
// blocks separated by a horizontal rule. Situations without a summary
// render nothing.
func RenderSituations(situations []Situation) string {
	var blocks []string
	for _, s := range situations {
		if block := renderSituation(s); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// renderSituation builds one markdown block: a bolded summary, linked when
// a URL is present, then the first description line plain and the rest as
// bullets.
func renderSituation(s Situation) string {
	summary := sanitizeLine(s.Summary)
	if summary == "" {
		return ""
	}

	var b strings.Builder
	if link := strings.TrimSpace(s.URL); link != "" {
		fmt.Fprintf(&b, "**[%s](%s)**", summary, link)
	} else {
		fmt.Fprintf(&b, "**%s**", summary)
	}

	lines := descriptionLines(s.Description)
	if len(lines) > 0 {
		b.WriteString("\n\n")
		b.WriteString(lines[0])
		for _, line := range lines[1:] {
			b.WriteString("\n- ")
			b.WriteString(line)
		}
	}

	return b.String()
}

// normalizeNewlines maps \r\n and bare \r to \n. Every split in this file
// must run on normalized text.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// sanitizeLine collapses embedded line breaks to single spaces for fields
// that render on one line.
func sanitizeLine(s string) string {
	var parts []string
	for _, part := range strings.Split(normalizeNewlines(s), "\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// descriptionLines splits a description into its non-blank lines.
func descriptionLines(description string) []string {
	var lines []string
	for _, line := range strings.Split(normalizeNewlines(description), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

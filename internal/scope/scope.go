// Package scope extracts requirement lines from free-text RFP documents.
package scope

import "strings"

var (
	headerMarkers = []string{"scope of supply", "scope of work"}
	stopPrefixes  = []string{"testing", "general"}
)

const bulletChars = "-• "

// Extract returns the requirement lines of an RFP in the order they appear.
//
// Lines following a "Scope of Supply" / "Scope of Work" header are collected until a blank line
// or a "Testing..." / "General..." section starts. When no such block yields anything, every
// line that looks like a cable description is taken instead.
func Extract(text string) []string {
	lines := splitLines(text)

	items := extractBlock(lines)
	if len(items) > 0 {
		return items
	}

	return extractCableLike(lines)
}

func extractBlock(lines []string) []string {
	items := make([]string, 0)
	inScope := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		lower := strings.ToLower(stripped)

		if !inScope {
			if isHeader(lower) {
				inScope = true
			}
			continue
		}

		if stripped == "" || hasAnyPrefix(lower, stopPrefixes) {
			break
		}

		if item := stripBullet(stripped); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func extractCableLike(lines []string) []string {
	items := make([]string, 0)

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if !looksLikeCable(strings.ToLower(stripped)) {
			continue
		}

		if item := stripBullet(stripped); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func isHeader(lower string) bool {
	for _, marker := range headerMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func looksLikeCable(lower string) bool {
	if strings.Contains(lower, "cable") {
		return true
	}
	return strings.Contains(lower, "core") &&
		(strings.Contains(lower, "sqmm") || strings.Contains(lower, "sq mm"))
}

// stripBullet removes a leading "-" or "•" marker (and any run of markers and spaces after it).
func stripBullet(s string) string {
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "•") {
		s = strings.TrimLeft(s, bulletChars)
	}
	return strings.TrimSpace(s)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

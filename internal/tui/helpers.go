package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/lipgloss"
)

// ────────────────────────────────────────────────────────────
// Layout helpers
// ────────────────────────────────────────────────────────────

// fitHeight pads or cuts s to exactly h lines.
func fitHeight(s string, h int) string {
	if h <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderSubTabs draws a row of section tabs with active highlighted.
func renderSubTabs(labels []string, active int) string {
	parts := make([]string, 0, len(labels))
	for i, l := range labels {
		if i == active {
			parts = append(parts, subTabActiveStyle.Render(l))
		} else {
			parts = append(parts, subTabStyle.Render(l))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderModal centers a bordered box over a body of the given size.
func renderModal(title, body string, width, height int) string {
	box := modalStyle.Width(minInt(56, maxInt(20, width-8))).
		Render(modalTitleStyle.Render(title) + "\n\n" + body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(colorBg))
}

// cycle moves i by delta within [0, n), wrapping at both ends.
func cycle(i, delta, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}

// ────────────────────────────────────────────────────────────
// Search
// ────────────────────────────────────────────────────────────

// fuzzyMatch reports whether query matches text: a case-insensitive
// substring, or a word of text within a small edit distance of query.
func fuzzyMatch(query, text string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	t := strings.ToLower(text)
	if strings.Contains(t, q) {
		return true
	}

	tolerance := utf8.RuneCountInString(q) / 4
	if tolerance == 0 {
		return false
	}
	for _, word := range strings.Fields(t) {
		// Compare against the word prefix too, so a partially typed word
		// with a typo still matches.
		if levenshtein.ComputeDistance(q, word) <= tolerance {
			return true
		}
		if r := []rune(word); len(r) > utf8.RuneCountInString(q) {
			if levenshtein.ComputeDistance(q, string(r[:utf8.RuneCountInString(q)])) <= tolerance {
				return true
			}
		}
	}
	return false
}

// ────────────────────────────────────────────────────────────
// String helpers
// ────────────────────────────────────────────────────────────

// truncate cuts a string to maxLen and appends "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// clamp restricts val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// max returns the larger of a and b.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// min returns the smaller of a and b.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

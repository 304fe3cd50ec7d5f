package tui

import "unicode/utf8"

// Minimum terminal dimensions for usable rendering.
const (
	MinWidth  = 40
	MinHeight = 10
)

// CompactWidth triggers compact mode for the footer and task table.
const CompactWidth = 60

// detailHeight is the viewport height of the detail panel, excluding its
// border and title.
const detailHeight = 8

// chromeHeight is everything that is not a task row: status bar, table
// header, detail panel with border and title, footer with border.
const chromeHeight = 1 + 1 + detailHeight + 3 + 2

// TruncateWithEllipsis truncates s to maxLen runes, appending "..." if truncated.
// If maxLen is less than 4, returns s truncated to maxLen runes without ellipsis.
func TruncateWithEllipsis(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		if maxLen <= 0 {
			return ""
		}
		return truncateToNRunes(s, maxLen)
	}
	return truncateToNRunes(s, maxLen-3) + "..."
}

// truncateToNRunes returns the first n runes of s as a string.
func truncateToNRunes(s string, n int) string {
	i := 0
	for j := 0; j < n; j++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

// visibleWindow returns the half-open range of rows to draw so that cursor
// stays on screen. height <= 0 means unbounded.
func visibleWindow(total, cursor, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > total {
		start = total - height
	}
	return start, start + height
}

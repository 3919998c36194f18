package assemble

import (
	"strings"
)

// DetectHeader finds the header row of a raw grid. It tries skip counts from
// zero up to maxAttempts-1 and accepts the first row that has a real name over
// every populated column. ok is false when no such row exists within the bound.
func DetectHeader(rows [][]string, maxAttempts int) (offset int, header []string, ok bool) {
	for skip := 0; skip < maxAttempts && skip < len(rows); skip++ {
		candidate := trimRight(rows[skip])
		if !syntheticHeader(candidate, dataWidth(rows[skip+1:])) {
			return skip, candidate, true
		}
	}
	return 0, nil, false
}

// syntheticHeader reports whether any column would get a placeholder name.
func syntheticHeader(header []string, width int) bool {
	if len(header) == 0 {
		return true
	}
	if width < len(header) {
		width = len(header)
	}
	for i := 0; i < width; i++ {
		if i >= len(header) || placeholderName(header[i]) {
			return true
		}
	}
	return false
}

func placeholderName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == "" || strings.Contains(n, "unnamed") || strings.Contains(n, "unknown")
}

func dataWidth(rows [][]string) int {
	width := 0
	for _, r := range rows {
		if w := len(trimRight(r)); w > width {
			width = w
		}
	}
	return width
}

func trimRight(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	return row[:n]
}

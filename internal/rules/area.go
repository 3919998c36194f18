package rules

import (
	"regexp"
	"strings"
)

// AreaSeparator separates a state from its sub-areas in area_affected.
const AreaSeparator = ":"

var areaSymbolRe = regexp.MustCompile(`[^a-zA-Z\s:]`)

// StripAreaSymbols keeps letters, whitespace and the area separator, then
// tidies whitespace around separators. A lone entry keeps its trailing
// separator.
func StripAreaSymbols(s string) string {
	s = strings.Join(strings.Fields(areaSymbolRe.ReplaceAllString(s, "")), " ")
	parts := strings.Split(s, AreaSeparator)
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 1 && strings.HasSuffix(s, AreaSeparator) {
		return kept[0] + AreaSeparator
	}
	return strings.Join(kept, AreaSeparator)
}

// UnificationKey is the form in which area values are matched against
// area_unification variants.
func UnificationKey(s string) string {
	return StripAreaSymbols(strings.ToLower(s))
}

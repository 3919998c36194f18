package normalize

import (
	"sort"
	"strings"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
)

// Audit diffs the distinct values of a column before and after normalization.
// Changes lists original/corrected pairs that differ beyond letter case; a
// value normalized to null has an empty correction.
func Audit(column string, before, after []domain.Value) domain.ColumnAudit {
	pre := distinct(before)
	post := distinct(after)

	a := domain.ColumnAudit{
		Column:   column,
		Added:    []string{},
		Removed:  []string{},
		Retained: []string{},
	}
	for v := range post {
		if pre[v] {
			a.Retained = append(a.Retained, v)
		} else {
			a.Added = append(a.Added, v)
		}
	}
	for v := range pre {
		if !post[v] {
			a.Removed = append(a.Removed, v)
		}
	}
	sort.Strings(a.Added)
	sort.Strings(a.Removed)
	sort.Strings(a.Retained)

	seen := make(map[domain.Change]bool)
	for i, b := range before {
		if !b.Valid {
			continue
		}
		c := domain.Change{Original: b.S, Corrected: after[i].String()}
		if strings.ToLower(c.Original) == c.Corrected || seen[c] {
			continue
		}
		seen[c] = true
		a.Changes = append(a.Changes, c)
	}
	sort.Slice(a.Changes, func(i, j int) bool {
		if a.Changes[i].Original != a.Changes[j].Original {
			return a.Changes[i].Original < a.Changes[j].Original
		}
		return a.Changes[i].Corrected < a.Changes[j].Corrected
	})
	return a
}

func distinct(values []domain.Value) map[string]bool {
	out := make(map[string]bool)
	for _, v := range values {
		if v.Valid {
			out[v.S] = true
		}
	}
	return out
}

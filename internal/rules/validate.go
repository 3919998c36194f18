package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
)

// Severity grades a configuration issue.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in the rule tables.
type Issue struct {
	Severity Severity `json:"severity"`
	Table    string   `json:"table"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Table, i.Message)
}

// HasFatal reports whether any issue is fatal.
func HasFatal(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

type issues []Issue

func (is *issues) fatalf(table, format string, args ...any) {
	*is = append(*is, Issue{Severity: SeverityFatal, Table: table, Message: fmt.Sprintf(format, args...)})
}

func (is *issues) warnf(table, format string, args ...any) {
	*is = append(*is, Issue{Severity: SeverityWarning, Table: table, Message: fmt.Sprintf(format, args...)})
}

// Validate inspects the rule tables for ambiguity. Ambiguous renames, duplicate
// keys and unusable targets are fatal; tables that are merely order dependent
// or can never match are warnings.
func Validate(r *Rules) []Issue {
	var out issues
	validateColumns(r, &out)
	known := knownColumns(r)
	validateDelimiters(r, known, &out)
	validateReplacements(r, &out)
	validateSubstitutions(r, known, &out)
	validatePostprocess(r, known, &out)
	validateUnification(r, &out)
	validateCategories(r, &out)
	validateTargets(r, &out)
	for _, c := range r.DatetimeColumns {
		if !known[c] {
			out.warnf("datetime_columns", "column %q is not a canonical or target column", c)
		}
	}
	return out
}

func validateColumns(r *Rules, out *issues) {
	const table = "columns"
	canonical := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		if strings.TrimSpace(c.Canonical) == "" {
			out.fatalf(table, "empty canonical name")
			continue
		}
		if canonical[c.Canonical] {
			out.fatalf(table, "duplicate canonical name %q", c.Canonical)
		}
		canonical[c.Canonical] = true
	}

	owner := make(map[string]string)
	for _, c := range r.Columns {
		for _, a := range c.Aliases {
			if canonical[a] {
				out.fatalf(table, "alias %q of %q is itself a canonical name", a, c.Canonical)
				continue
			}
			prev, seen := owner[a]
			switch {
			case seen && prev == c.Canonical:
				out.warnf(table, "alias %q listed twice under %q", a, c.Canonical)
			case seen:
				out.fatalf(table, "ambiguous alias %q maps to both %q and %q", a, prev, c.Canonical)
			default:
				owner[a] = c.Canonical
			}
		}
	}

	snake := make(map[string]string)
	for _, c := range r.Columns {
		s := domain.SnakeCase(c.Canonical)
		if prev, ok := snake[s]; ok && prev != c.Canonical {
			out.fatalf(table, "canonical names %q and %q collide after snake_case", prev, c.Canonical)
		}
		snake[s] = c.Canonical
	}
}

func knownColumns(r *Rules) map[string]bool {
	known := make(map[string]bool)
	for _, c := range r.CanonicalColumns() {
		known[c] = true
	}
	for _, t := range r.Targets {
		known[t.Column] = true
	}
	return known
}

func validateDelimiters(r *Rules, known map[string]bool, out *issues) {
	const table = "delimiters"
	seen := make(map[string]bool)
	for _, d := range r.Delimiters {
		if seen[d.Column] {
			out.fatalf(table, "duplicate delimiter rule for %q", d.Column)
		}
		seen[d.Column] = true
		if !known[d.Column] {
			out.warnf(table, "column %q is not a canonical or target column", d.Column)
		}
		for _, inc := range d.Incorrect {
			if inc == "" {
				out.fatalf(table, "empty incorrect delimiter for %q", d.Column)
			}
		}
	}
}

func validateReplacements(r *Rules, out *issues) {
	const table = "replacements"
	seen := make(map[string]bool)
	for _, rep := range r.Replacements {
		if seen[rep.Match] {
			out.fatalf(table, "duplicate match %q", rep.Match)
		}
		seen[rep.Match] = true
		if rep.Match != strings.ToLower(rep.Match) {
			out.warnf(table, "match %q is not lowercase and can never match normalized text", rep.Match)
		}
	}
}

func validateSubstitutions(r *Rules, known map[string]bool, out *issues) {
	const table = "substitutions"
	seenColumns := make(map[string]bool)
	for _, cs := range r.Substitutions {
		if seenColumns[cs.Column] {
			out.fatalf(table, "duplicate substitution table for %q", cs.Column)
		}
		seenColumns[cs.Column] = true
		if !known[cs.Column] {
			out.warnf(table, "column %q is not a canonical or target column", cs.Column)
		}

		owner := make(map[string]string)
		for _, e := range cs.Entries {
			for _, v := range e.Variants {
				if v == "" {
					out.fatalf(table, "%s: empty variant under %q", cs.Column, e.Canonical)
					continue
				}
				if v != strings.ToLower(v) {
					out.warnf(table, "%s: variant %q is not lowercase and can never match normalized text", cs.Column, v)
				}
				if prev, ok := owner[v]; ok && prev != e.Canonical {
					out.fatalf(table, "%s: variant %q maps to both %q and %q", cs.Column, v, prev, e.Canonical)
					continue
				}
				owner[v] = e.Canonical
			}
		}
		variants := make([]string, 0, len(owner))
		for v := range owner {
			variants = append(variants, v)
		}
		sort.Strings(variants)
		for _, v := range variants {
			for _, w := range variants {
				c, d := owner[v], owner[w]
				if v != w && c != d && strings.Contains(w, v) {
					out.warnf(table, "%s: variant %q (%q) overlaps %q (%q); longest match wins",
						cs.Column, v, c, w, d)
				}
			}
		}
	}
}

func validatePostprocess(r *Rules, known map[string]bool, out *issues) {
	for _, p := range r.Postprocess {
		if !known[p.Column] {
			out.warnf("postprocess", "column %q is not a canonical or target column", p.Column)
		}
		if p.Token == "" {
			out.fatalf("postprocess", "empty token for %q", p.Column)
		}
	}
}

func validateUnification(r *Rules, out *issues) {
	const table = "area_unification"
	owner := make(map[string]string)
	for _, u := range r.AreaUnification {
		if u.Canonical == "" {
			out.fatalf(table, "empty canonical area")
		}
		for _, v := range u.Variants {
			key := UnificationKey(v)
			if prev, ok := owner[key]; ok && prev != u.Canonical {
				out.fatalf(table, "variant %q maps to both %q and %q", v, prev, u.Canonical)
				continue
			}
			owner[key] = u.Canonical
		}
	}
}

func validateCategories(r *Rules, out *issues) {
	seen := make(map[string]bool)
	for _, c := range r.EventCategories {
		if seen[c.Category] {
			out.fatalf("event_categories", "duplicate category %q", c.Category)
		}
		seen[c.Category] = true
		if len(c.Keywords) == 0 {
			out.warnf("event_categories", "category %q has no keywords and can never match", c.Category)
		}
	}
}

func validateTargets(r *Rules, out *issues) {
	const table = "targets"
	if len(r.Targets) == 0 {
		out.fatalf(table, "no target columns declared")
	}
	seen := make(map[string]bool)
	for _, t := range r.Targets {
		if seen[t.Column] {
			out.fatalf(table, "duplicate target %q", t.Column)
		}
		seen[t.Column] = true
		if !t.Type.Valid() {
			out.fatalf(table, "column %q has unknown type %q", t.Column, t.Type)
		}
		if t.Type == domain.TypeList && t.Separator == "" {
			out.fatalf(table, "list column %q needs a separator", t.Column)
		}
	}
}

// Package normalize applies the per-column text repair pipeline and records
// what it changed.
package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
)

// Normalizer runs the fixed step order over column values:
//
//  1. datetime parse (datetime columns only)
//  2. encoding repair, lowercase, whitespace collapse
//  3. delimiter canonicalization
//  4. bracketed reference removal
//  5. quote removal
//  6. exact-value replacement
//  7. substring substitution with whitespace and delimiter cleanup, repeated
//     until the text is stable
//  8. column token rewrites
//
// Nulls pass through untouched and text that ends up empty becomes null.
type Normalizer struct {
	rules     *rules.Rules
	exact     map[string]rules.Replacement
	replacers map[string]*strings.Replacer
}

// New compiles the rule tables into a Normalizer.
func New(r *rules.Rules) *Normalizer {
	n := &Normalizer{
		rules:     r,
		exact:     make(map[string]rules.Replacement, len(r.Replacements)),
		replacers: make(map[string]*strings.Replacer, len(r.Substitutions)),
	}
	for _, rep := range r.Replacements {
		n.exact[rep.Match] = rep
	}
	for _, cs := range r.Substitutions {
		if rp := buildReplacer(cs.Entries); rp != nil {
			n.replacers[cs.Column] = rp
		}
	}
	return n
}

// maxSubstitutionPasses bounds the substitution fixed point. Every pass that
// changes the text shortens it or rewrites a variant, so real values settle
// in two or three passes.
const maxSubstitutionPasses = 16

type pair struct {
	variant, canonical string
	order              int
}

// buildReplacer orders variants longest first, then by declaration order, so
// the leftmost-longest variant wins at every position.
func buildReplacer(entries []rules.Substitution) *strings.Replacer {
	var pairs []pair
	for _, e := range entries {
		for _, v := range e.Variants {
			if v == "" {
				continue
			}
			pairs = append(pairs, pair{variant: v, canonical: e.Canonical, order: len(pairs)})
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if len(pairs[i].variant) != len(pairs[j].variant) {
			return len(pairs[i].variant) > len(pairs[j].variant)
		}
		return pairs[i].order < pairs[j].order
	})
	oldnew := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		oldnew = append(oldnew, p.variant, p.canonical)
	}
	return strings.NewReplacer(oldnew...)
}

// NormalizeColumn normalizes every value of column.
func (n *Normalizer) NormalizeColumn(values []domain.Value, column string) []domain.Value {
	out := make([]domain.Value, len(values))
	for i, v := range values {
		out[i] = n.Value(v, column)
	}
	return out
}

// Value normalizes one cell of column.
func (n *Normalizer) Value(v domain.Value, column string) domain.Value {
	if !v.Valid {
		return v
	}
	s := v.S

	if n.rules.IsDatetime(column) {
		t, ok := ParseDatetime(s)
		if !ok {
			return domain.Null
		}
		s = t.Format(domain.DateLayout)
	}

	// Repair runs before case folding; lowercasing mojibake breaks the byte patterns.
	s = CollapseSpace(strings.ToLower(RepairText(s)))

	delim, hasDelim := n.rules.Delimiter(column)
	if hasDelim {
		s = CanonicalizeDelimiter(s, delim.Correct, delim.Incorrect)
	}
	s = StripBracketRefs(s)
	s = CollapseSpace(StripQuotes(s))

	s, ok := n.replaceExact(s)
	if !ok {
		return domain.Null
	}

	// A deletion can bring a new variant together ("m100w" -> "mw"), so
	// substitution repeats until the text stops changing.
	rp := n.replacers[column]
	for i := 0; i < maxSubstitutionPasses; i++ {
		next := s
		if rp != nil {
			next = rp.Replace(next)
		}
		next = CollapseSpace(next)
		if hasDelim {
			next = CanonicalizeDelimiter(next, delim.Correct, delim.Incorrect)
		}
		if next == s {
			break
		}
		s = next
	}
	// A substitution may leave a sentinel behind, e.g. "unknown of" -> "unknown".
	if s, ok = n.replaceExact(s); !ok {
		return domain.Null
	}

	s = n.postprocess(s, column, delim.Correct)
	if s == "" {
		return domain.Null
	}
	return domain.Str(s)
}

// replaceExact applies the exact-value table. ok is false when the value maps to null.
func (n *Normalizer) replaceExact(s string) (string, bool) {
	rep, found := n.exact[s]
	if !found {
		return s, true
	}
	if rep.Replace == nil {
		return "", false
	}
	return *rep.Replace, true
}

func (n *Normalizer) postprocess(s, column, sep string) string {
	rewrites := n.rules.PostprocessFor(column)
	if len(rewrites) == 0 {
		return s
	}
	tokens := []string{s}
	if sep != "" {
		tokens = strings.Split(s, sep)
	}
	for i, tok := range tokens {
		for _, p := range rewrites {
			if tok == p.Token {
				tokens[i] = p.Replace
				break
			}
		}
	}
	return strings.Join(tokens, sep)
}

// NormalizeTable normalizes every column of t in place except those in skip,
// and returns one audit per normalized column.
func (n *Normalizer) NormalizeTable(t *domain.Table, skip map[string]bool) []domain.ColumnAudit {
	audits := make([]domain.ColumnAudit, 0, len(t.Columns))
	for _, c := range t.Columns {
		if skip[c] {
			continue
		}
		before := t.Column(c)
		after := n.NormalizeColumn(before, c)
		t.SetColumn(c, after)
		audits = append(audits, Audit(c, before, after))
	}
	return audits
}

// FillEventMonth sets a null month from the month of the parsed event date.
// It returns the number of rows filled.
func FillEventMonth(t *domain.Table, monthColumn, dateColumn string) int {
	if !t.HasColumn(dateColumn) {
		return 0
	}
	t.AddColumn(monthColumn)
	filled := 0
	for _, r := range t.Rows {
		if r.Get(monthColumn).Valid {
			continue
		}
		d := r.Get(dateColumn)
		if !d.Valid {
			continue
		}
		parsed, err := time.Parse(domain.DateLayout, d.S)
		if err != nil {
			continue
		}
		r[monthColumn] = domain.Str(strings.ToLower(parsed.Month().String()))
		filled++
	}
	return filled
}

// Package reduce collapses free-text area variants into canonical names and
// derives the event category, affected states and NERC region list columns.
package reduce

import (
	"regexp"
	"sort"
	"strings"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
)

// Column names read and written by the reducer.
const (
	AreaColumn           = "area_affected"
	EventTypeColumn      = "event_type"
	NERCRegionColumn     = "nerc_region"
	EventCategoryColumn  = "event_category"
	AffectedStatesColumn = "affected_states"
	NERCRegionListColumn = "nerc_region_list"

	// UnknownCategory is assigned when no keyword matches.
	UnknownCategory = "unknown"

	areaSeparator = rules.AreaSeparator
)

var (
	// bothBareRe: "henepin and ramsey county" -> "henepin county:ramsey county".
	bothBareRe = regexp.MustCompile(`(?i)^\s*(.+?)\s+and\s+(.+?)\s+county\s*$`)
	// bothQualifiedRe: "king county and pierce county" -> "king county:pierce county".
	bothQualifiedRe = regexp.MustCompile(`(?i)^\s*(.+? county)\s+and\s+(.+? county)\s*$`)
	// leftQualifiedRe: "king county and seattle" -> "king county:seattle".
	leftQualifiedRe = regexp.MustCompile(`(?i)^\s*(.+? county)\s+and\s+(.+?)\s*$`)
)

// Report summarizes a reduction pass.
type Report struct {
	AreasRewritten int             `json:"areas_rewritten"`
	AreasUnified   int             `json:"areas_unified"`
	UnmatchedAreas int             `json:"unmatched_distinct_areas"`
	UnknownRegions []string        `json:"unknown_nerc_regions"`
	CategoryCounts map[string]int  `json:"category_counts"`
	RowsWithStates int             `json:"rows_with_states"`
	AreaChanges    []domain.Change `json:"-"`
}

// Reducer holds the compiled lookup tables.
type Reducer struct {
	unify      map[string]string
	categories []rules.Category
	states     map[string]bool
	regions    map[string]bool
}

// New compiles the unification, category and reference tables.
func New(r *rules.Rules) *Reducer {
	red := &Reducer{
		unify:      make(map[string]string),
		categories: r.EventCategories,
		states:     make(map[string]bool, len(r.States)),
		regions:    make(map[string]bool, len(r.NERCRegions)),
	}
	for _, u := range r.AreaUnification {
		for _, v := range u.Variants {
			red.unify[rules.UnificationKey(v)] = u.Canonical
		}
	}
	for _, s := range r.States {
		red.states[strings.ToLower(s)] = true
	}
	for _, g := range r.NERCRegions {
		red.regions[strings.ToLower(g)] = true
	}
	return red
}

// RewriteConjunction splits "X and Y county" style segments into colon-joined
// qualified names. Patterns are tried in order and the first match wins; the
// bare pattern does not claim a left side that is already qualified.
func RewriteConjunction(s string) string {
	segments := strings.Split(s, areaSeparator)
	for i, seg := range segments {
		segments[i] = rewriteSegment(seg)
	}
	return strings.Join(segments, areaSeparator)
}

func rewriteSegment(seg string) string {
	if m := bothBareRe.FindStringSubmatch(seg); m != nil && !strings.HasSuffix(strings.ToLower(strings.TrimSpace(m[1])), " county") {
		return strings.TrimSpace(m[1]) + " county" + areaSeparator + strings.TrimSpace(m[2]) + " county"
	}
	if m := bothQualifiedRe.FindStringSubmatch(seg); m != nil {
		return strings.TrimSpace(m[1]) + areaSeparator + strings.TrimSpace(m[2])
	}
	if m := leftQualifiedRe.FindStringSubmatch(seg); m != nil {
		return strings.TrimSpace(m[1]) + areaSeparator + strings.TrimSpace(m[2])
	}
	return seg
}


// Unify replaces a whole area value with its canonical name. ok is false when
// the value is not in the table; the value is then returned unchanged.
func (r *Reducer) Unify(s string) (string, bool) {
	if c, ok := r.unify[rules.UnificationKey(s)]; ok {
		return c, true
	}
	return s, false
}

// ReduceArea runs conjunction rewriting, symbol stripping and unification.
func (r *Reducer) ReduceArea(v domain.Value) (domain.Value, bool) {
	if !v.Valid {
		return v, false
	}
	s := rules.StripAreaSymbols(RewriteConjunction(v.S))
	s, unified := r.Unify(s)
	if s == "" {
		return domain.Null, false
	}
	return domain.Str(s), unified
}

// Category returns the first category with a keyword contained in the event
// type, or UnknownCategory.
func (r *Reducer) Category(eventType domain.Value) string {
	if !eventType.Valid {
		return UnknownCategory
	}
	for _, c := range r.categories {
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(eventType.S, kw) {
				return c.Category
			}
		}
	}
	return UnknownCategory
}

// AffectedStates returns the distinct area tokens that are exact state or
// territory names, colon-joined in first-seen order. Null when none match.
func (r *Reducer) AffectedStates(area domain.Value) domain.Value {
	if !area.Valid {
		return domain.Null
	}
	tokens := strings.FieldsFunc(area.S, func(c rune) bool { return c == ':' || c == ';' })
	var found []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		tok = strings.TrimRight(strings.ToLower(strings.TrimSpace(tok)), ".,;:!? ")
		if r.states[tok] && !seen[tok] {
			seen[tok] = true
			found = append(found, tok)
		}
	}
	if len(found) == 0 {
		return domain.Null
	}
	return domain.Str(strings.Join(found, areaSeparator))
}

// UnknownRegions returns the tokens of a NERC region value outside the
// reference list.
func (r *Reducer) UnknownRegions(v domain.Value) []string {
	if !v.Valid {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(v.S, ",") {
		if tok = strings.TrimSpace(tok); tok != "" && !r.regions[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// Reduce rewrites the area column in place and adds the derived columns.
func (r *Reducer) Reduce(t *domain.Table) Report {
	rep := Report{CategoryCounts: make(map[string]int), UnknownRegions: []string{}}

	if t.HasColumn(AreaColumn) {
		unmatched := make(map[string]bool)
		seen := make(map[domain.Change]bool)
		for _, row := range t.Rows {
			before := row.Get(AreaColumn)
			after, unified := r.ReduceArea(before)
			row[AreaColumn] = after
			if unified {
				rep.AreasUnified++
			} else if after.Valid && !r.states[after.S] {
				unmatched[after.S] = true
			}
			if before.Valid && before.S != after.String() {
				rep.AreasRewritten++
				c := domain.Change{Original: before.S, Corrected: after.String()}
				if !seen[c] {
					seen[c] = true
					rep.AreaChanges = append(rep.AreaChanges, c)
				}
			}
		}
		rep.UnmatchedAreas = len(unmatched)
		sort.Slice(rep.AreaChanges, func(i, j int) bool {
			return rep.AreaChanges[i].Original < rep.AreaChanges[j].Original
		})
	}

	categories := make([]domain.Value, len(t.Rows))
	states := make([]domain.Value, len(t.Rows))
	regions := make([]domain.Value, len(t.Rows))
	unknown := make(map[string]bool)
	for i, row := range t.Rows {
		cat := r.Category(row.Get(EventTypeColumn))
		categories[i] = domain.Str(cat)
		rep.CategoryCounts[cat]++

		states[i] = r.AffectedStates(row.Get(AreaColumn))
		if states[i].Valid {
			rep.RowsWithStates++
		}

		nerc := row.Get(NERCRegionColumn)
		regions[i] = nerc
		for _, tok := range r.UnknownRegions(nerc) {
			unknown[tok] = true
		}
	}
	t.SetColumn(EventCategoryColumn, categories)
	t.SetColumn(AffectedStatesColumn, states)
	t.SetColumn(NERCRegionListColumn, regions)

	for tok := range unknown {
		rep.UnknownRegions = append(rep.UnknownRegions, tok)
	}
	sort.Strings(rep.UnknownRegions)
	return rep
}

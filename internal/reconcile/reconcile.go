// Package reconcile maps the historical column headers of one source file onto
// the canonical column names.
package reconcile

import (
	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
)

// Reconcile renames known aliases to their canonical names. Canonical entries
// and their aliases are applied in declaration order. An alias is left in place
// when its canonical column already exists in the table, so no two columns ever
// share a name; such aliases are reported as conflicts and unexpected columns.
//
// The input table is not modified.
func Reconcile(t domain.RawRecordTable, aliases []rules.ColumnAlias) (domain.RawRecordTable, domain.ReconciliationSummary) {
	summary := domain.ReconciliationSummary{
		SourceFile: t.SourceFile,
		Year:       t.SourceYear,
		Renamed:    []domain.Rename{},
		NotFound:   []string{},
		Unexpected: []string{},
	}

	columns := append([]string(nil), t.Columns...)
	present := make(map[string]int, len(columns))
	for i, c := range columns {
		present[c] = i
	}

	renames := make(map[string]string)
	canonical := make(map[string]bool, len(aliases))
	for _, entry := range aliases {
		canonical[entry.Canonical] = true

		var applied []string
		for _, alias := range entry.Aliases {
			idx, ok := present[alias]
			if !ok {
				continue
			}
			if _, exists := present[entry.Canonical]; exists {
				summary.Conflicts = append(summary.Conflicts, alias)
				continue
			}
			columns[idx] = entry.Canonical
			delete(present, alias)
			present[entry.Canonical] = idx
			renames[alias] = entry.Canonical
			applied = append(applied, alias)
		}
		if len(applied) > 0 {
			summary.Renamed = append(summary.Renamed, domain.Rename{Canonical: entry.Canonical, Aliases: applied})
		}
	}

	for _, entry := range aliases {
		if _, ok := present[entry.Canonical]; !ok {
			summary.NotFound = append(summary.NotFound, entry.Canonical)
		}
	}
	for _, c := range columns {
		if !canonical[c] {
			summary.Unexpected = append(summary.Unexpected, c)
		}
	}

	out := domain.RawRecordTable{
		SourceFile:      t.SourceFile,
		SourceYear:      t.SourceYear,
		HeaderRowOffset: t.HeaderRowOffset,
		Columns:         columns,
		Rows:            make([]domain.Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		nr := make(domain.Row, len(r))
		for k, v := range r {
			if to, ok := renames[k]; ok {
				k = to
			}
			nr[k] = v
		}
		out.Rows[i] = nr
	}

	return out, summary
}

// Package coerce converts the normalized text table into typed columns and
// quarantines rows that cannot be converted.
package coerce

import (
	"fmt"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
)

// Result is the outcome of a coercion pass.
type Result struct {
	Valid      domain.TypedTable
	Quarantine []domain.QuarantineRow
	// QuarantineColumns are the input columns carried by quarantined rows.
	QuarantineColumns []string
	Report            domain.ConversionReport
}

// Coerce converts every target column of t. A row with any failing target
// cell goes to quarantine whole; nulls never fail. Target columns missing from
// t are all null.
func Coerce(t *domain.Table, targets []rules.Target) Result {
	res := Result{
		Valid: domain.TypedTable{
			Columns: make([]string, 0, len(targets)),
			Types:   make(map[string]domain.ColumnType, len(targets)),
		},
		QuarantineColumns: append([]string(nil), t.Columns...),
		Report: domain.ConversionReport{
			Total:  t.Len(),
			Issues: make(map[string][]domain.CoercionIssue),
		},
	}
	for _, tg := range targets {
		res.Valid.Columns = append(res.Valid.Columns, tg.Column)
		res.Valid.Types[tg.Column] = tg.Type
	}

	// First pass: partition rows by whether every target cell converts.
	var valid []domain.Row
	for i, row := range t.Rows {
		failures := make(map[string]domain.CoercionIssue)
		for _, tg := range targets {
			v := row.Get(tg.Column)
			if o := Convert(v, tg.Type, tg.Separator); o.Failed() {
				issue := domain.CoercionIssue{Row: i, Value: v.S, Reason: o.Reason}
				failures[tg.Column] = issue
				res.Report.Issues[tg.Column] = append(res.Report.Issues[tg.Column], issue)
			}
		}
		if len(failures) > 0 {
			res.Quarantine = append(res.Quarantine, domain.QuarantineRow{Index: i, Row: row.Clone(), Failures: failures})
			continue
		}
		valid = append(valid, row)
	}

	// Second pass: convert the surviving rows.
	res.Valid.Rows = make([]domain.TypedRow, 0, len(valid))
	for i, row := range valid {
		tr := make(domain.TypedRow, len(targets))
		for _, tg := range targets {
			o := Convert(row.Get(tg.Column), tg.Type, tg.Separator)
			if o.Failed() {
				res.Report.SecondStage = append(res.Report.SecondStage,
					fmt.Sprintf("row %d column %s: %s", i, tg.Column, o.Reason))
				continue
			}
			tr[tg.Column] = o.Value
		}
		res.Valid.Rows = append(res.Valid.Rows, tr)
	}

	res.Report.Valid = len(res.Valid.Rows)
	res.Report.Incompatible = len(res.Quarantine)
	return res
}

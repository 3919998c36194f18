package domain

import "sort"

// Rename records the aliases renamed to one canonical column in one file.
type Rename struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

// ReconciliationSummary describes how one file's columns mapped onto the
// canonical names. It is built once and never mutated.
type ReconciliationSummary struct {
	SourceFile string   `json:"source_file"`
	Year       int      `json:"year"`
	Renamed    []Rename `json:"renamed"`
	NotFound   []string `json:"not_found"`
	Unexpected []string `json:"unexpected"`
	// Conflicts lists aliases left in place because their canonical column
	// was already present in the file.
	Conflicts []string `json:"conflicts,omitempty"`
}

// RenamedAliases returns the alias groups in canonical declaration order.
func (s ReconciliationSummary) RenamedAliases() [][]string {
	out := make([][]string, 0, len(s.Renamed))
	for _, r := range s.Renamed {
		out = append(out, r.Aliases)
	}
	return out
}

// SkippedFile is a source file left out of the batch.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Change is one original to corrected value pair.
type Change struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

// ColumnAudit is the before/after diff of one column's value set.
type ColumnAudit struct {
	Column   string   `json:"column"`
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Retained []string `json:"retained"`
	Changes  []Change `json:"-"`
}

// CoercionIssue is one cell that failed conversion.
type CoercionIssue struct {
	Row    int    `json:"row"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// QuarantineRow is an input row excluded from the typed output.
type QuarantineRow struct {
	Index    int                      `json:"index"`
	Row      Row                      `json:"-"`
	Failures map[string]CoercionIssue `json:"failures"`
}

// FailedColumns returns the failing columns in sorted order.
func (q QuarantineRow) FailedColumns() []string {
	cols := make([]string, 0, len(q.Failures))
	for c := range q.Failures {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// ConversionReport summarizes type coercion.
type ConversionReport struct {
	Total        int                        `json:"total"`
	Valid        int                        `json:"valid"`
	Incompatible int                        `json:"incompatible"`
	Issues       map[string][]CoercionIssue `json:"issues"`
	SecondStage  []string                   `json:"second_stage_errors,omitempty"`
}

// Artifact is one file written by the export stage.
type Artifact struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Rows   int    `json:"rows"`
}

// SchemaVerdict is the outcome of the external schema gate.
type SchemaVerdict struct {
	Passed        bool     `json:"passed"`
	ViolatedRules []string `json:"violated_rules,omitempty"`
}

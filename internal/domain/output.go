package domain

// Output is everything a run hands to the export stage.
type Output struct {
	Final             TypedTable
	Quarantine        []QuarantineRow
	QuarantineColumns []string
	Audits            []ColumnAudit
	AreaChanges       []Change
}

package pipeline

import (
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/profile"
	"github.com/couchcryptid/disturbance-data-etl/internal/reduce"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
)

// AuditSummary counts one column's audit without listing values.
type AuditSummary struct {
	Column   string `json:"column"`
	Added    int    `json:"added"`
	Removed  int    `json:"removed"`
	Retained int    `json:"retained"`
	Changes  int    `json:"changes"`
}

// RunReport is the machine-readable record of one run, written next to the
// data outputs.
type RunReport struct {
	RunID            string                         `json:"run_id"`
	GeneratedAt      time.Time                      `json:"generated_at"`
	FilesRead        []string                       `json:"files_read"`
	Skipped          []domain.SkippedFile           `json:"skipped_files"`
	Reconciliation   []domain.ReconciliationSummary `json:"reconciliation"`
	ConfigIssues     []rules.Issue                  `json:"config_issues"`
	Audits           []AuditSummary                 `json:"audits"`
	EventMonthFilled int                            `json:"event_month_filled"`
	Reduction        reduce.Report                  `json:"reduction"`
	Conversion       domain.ConversionReport        `json:"conversion"`
	InitialProfile   []profile.ColumnProfile        `json:"initial_profile"`
	FinalProfile     []profile.ColumnProfile        `json:"final_profile"`
	ProfileDeltas    []profile.Delta                `json:"profile_deltas"`
	Schema           *domain.SchemaVerdict          `json:"schema,omitempty"`
	Artifacts        []domain.Artifact              `json:"artifacts"`
	StageSeconds     map[string]float64             `json:"stage_seconds"`
}

func summarizeAudits(audits []domain.ColumnAudit) []AuditSummary {
	out := make([]AuditSummary, 0, len(audits))
	for _, a := range audits {
		out = append(out, AuditSummary{
			Column:   a.Column,
			Added:    len(a.Added),
			Removed:  len(a.Removed),
			Retained: len(a.Retained),
			Changes:  len(a.Changes),
		})
	}
	return out
}

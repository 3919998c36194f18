package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/disturbance-data-etl/internal/assemble"
	"github.com/couchcryptid/disturbance-data-etl/internal/coerce"
	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/normalize"
	"github.com/couchcryptid/disturbance-data-etl/internal/profile"
	"github.com/couchcryptid/disturbance-data-etl/internal/reduce"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
)

// Columns touched by the event month fallback.
const (
	EventMonthColumn = "event_month"
	EventDateColumn  = "date_event_began"
)

// profileListSeparator joins list cells when the typed table is profiled.
const profileListSeparator = "|"

// Transformation is the result of transforming the unioned table.
type Transformation struct {
	Output           domain.Output
	EventMonthFilled int
	Reduction        reduce.Report
	Conversion       domain.ConversionReport
	InitialProfile   []profile.ColumnProfile
	FinalProfile     []profile.ColumnProfile
}

// DisturbanceTransformer implements Transformer with the normalize, reduce
// and coerce stages driven by one set of rules.
type DisturbanceTransformer struct {
	rules      *rules.Rules
	normalizer *normalize.Normalizer
	reducer    *reduce.Reducer
	profile    profile.Options
	logger     *slog.Logger
}

// NewTransformer compiles the rule tables into a DisturbanceTransformer.
func NewTransformer(r *rules.Rules, logger *slog.Logger) *DisturbanceTransformer {
	return &DisturbanceTransformer{
		rules:      r,
		normalizer: normalize.New(r),
		reducer:    reduce.New(r),
		profile:    profile.DefaultOptions(),
		logger:     logger,
	}
}

// Transform normalizes t in place, derives the reduced columns and coerces
// the result to the target types.
func (t *DisturbanceTransformer) Transform(ctx context.Context, table *domain.Table) (*Transformation, error) {
	out := &Transformation{InitialProfile: profile.Table(table, t.profile)}

	audits := t.normalizer.NormalizeTable(table, map[string]bool{assemble.YearColumn: true})
	changed := 0
	for _, a := range audits {
		changed += len(a.Changes)
	}
	t.logger.Info("values normalized", "columns", len(audits), "distinct_changes", changed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.EventMonthFilled = normalize.FillEventMonth(table, EventMonthColumn, EventDateColumn)
	if out.EventMonthFilled > 0 {
		t.logger.Info("event month filled from event date", "rows", out.EventMonthFilled)
	}

	out.Reduction = t.reducer.Reduce(table)
	t.logger.Info("cardinality reduced",
		"areas_rewritten", out.Reduction.AreasRewritten,
		"areas_unified", out.Reduction.AreasUnified,
		"unmatched_distinct_areas", out.Reduction.UnmatchedAreas,
	)
	if len(out.Reduction.UnknownRegions) > 0 {
		t.logger.Warn("unknown nerc regions", "regions", out.Reduction.UnknownRegions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := coerce.Coerce(table, t.rules.Targets)
	out.Conversion = res.Report
	for _, msg := range res.Report.SecondStage {
		t.logger.Error("conversion failed after partition", "detail", msg)
	}
	t.logger.Info("types coerced",
		"total", res.Report.Total,
		"valid", res.Report.Valid,
		"incompatible", res.Report.Incompatible,
	)

	out.Output = domain.Output{
		Final:             res.Valid,
		Quarantine:        res.Quarantine,
		QuarantineColumns: res.QuarantineColumns,
		Audits:            audits,
		AreaChanges:       out.Reduction.AreaChanges,
	}
	out.FinalProfile = profile.Table(res.Valid.AsTable(profileListSeparator), t.profile)
	return out, nil
}

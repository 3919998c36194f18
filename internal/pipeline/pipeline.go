package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/assemble"
	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/observability"
	"github.com/couchcryptid/disturbance-data-etl/internal/profile"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
	"github.com/google/uuid"
)

// Extractor reads the source files into one unioned table.
type Extractor interface {
	Extract(ctx context.Context) (assemble.Result, error)
}

// Transformer turns the unioned table into the typed output.
type Transformer interface {
	Transform(ctx context.Context, table *domain.Table) (*Transformation, error)
}

// Loader writes the outputs and the run report.
type Loader interface {
	Load(ctx context.Context, out *domain.Output) ([]domain.Artifact, error)
	WriteReport(ctx context.Context, v any) (domain.Artifact, error)
}

// SchemaValidator checks the final table against declarative constraints
// maintained outside this module.
type SchemaValidator interface {
	Validate(ctx context.Context, t *domain.TypedTable) (domain.SchemaVerdict, error)
}

// Stage names used in logs, metrics and the run report.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageValidate  = "validate"
	StageLoad      = "load"
)

// Pipeline runs extract, transform, schema gate and load once.
type Pipeline struct {
	extractor    Extractor
	transformer  Transformer
	loader       Loader
	validator    SchemaValidator
	configIssues []rules.Issue
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
	}
}

// WithSchemaValidator gates exports on v. A nil validator disables the gate.
func (p *Pipeline) WithSchemaValidator(v SchemaValidator) *Pipeline {
	p.validator = v
	return p
}

// WithConfigIssues records non-fatal rule table issues in the run report.
func (p *Pipeline) WithConfigIssues(issues []rules.Issue) *Pipeline {
	p.configIssues = issues
	for _, i := range issues {
		p.metrics.ConfigIssues.WithLabelValues(string(i.Severity)).Inc()
	}
	return p
}

// CheckReadiness returns nil once a run has written its outputs, or an error
// describing why the batch is not done yet.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("batch has not written its outputs yet")
	}
	return nil
}

// Run executes the batch once. Nothing is written unless every stage before
// load succeeds. The returned report is non-nil whenever extraction ran.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.metrics.LastRunSuccess.Set(0)

	report := &RunReport{
		RunID:        uuid.NewString(),
		GeneratedAt:  domain.Now(),
		ConfigIssues: p.configIssues,
		StageSeconds: make(map[string]float64),
	}
	if report.ConfigIssues == nil {
		report.ConfigIssues = []rules.Issue{}
	}

	var extracted assemble.Result
	err := p.stage(report, StageExtract, func() (err error) {
		extracted, err = p.extractor.Extract(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	report.FilesRead = extracted.Files
	report.Skipped = extracted.Skipped
	report.Reconciliation = extracted.Summaries
	p.metrics.FilesRead.Add(float64(len(extracted.Files)))
	p.metrics.FilesSkipped.Add(float64(len(extracted.Skipped)))
	p.metrics.RowsIn.Add(float64(extracted.Table.Len()))
	p.logger.Info("sources assembled",
		"files", len(extracted.Files),
		"skipped", len(extracted.Skipped),
		"rows", extracted.Table.Len(),
		"columns", len(extracted.Table.Columns),
	)

	var tr *Transformation
	err = p.stage(report, StageTransform, func() (err error) {
		tr, err = p.transformer.Transform(ctx, extracted.Table)
		return err
	})
	if err != nil {
		return report, fmt.Errorf("transform: %w", err)
	}
	p.record(report, tr)

	if p.validator != nil {
		var verdict domain.SchemaVerdict
		err = p.stage(report, StageValidate, func() (err error) {
			verdict, err = p.validator.Validate(ctx, &tr.Output.Final)
			return err
		})
		if err != nil {
			return report, fmt.Errorf("schema validation: %w", err)
		}
		report.Schema = &verdict
		if !verdict.Passed {
			p.logger.Error("final table rejected", "violated_rules", verdict.ViolatedRules)
			return report, fmt.Errorf("%w: %s", domain.ErrSchemaRejected, strings.Join(verdict.ViolatedRules, ", "))
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	err = p.stage(report, StageLoad, func() (err error) {
		report.Artifacts, err = p.loader.Load(ctx, &tr.Output)
		return err
	})
	if err != nil {
		return report, fmt.Errorf("load: %w", err)
	}
	a, err := p.loader.WriteReport(ctx, report)
	if err != nil {
		return report, fmt.Errorf("write run report: %w", err)
	}
	report.Artifacts = append(report.Artifacts, a)

	p.metrics.LastRunSuccess.Set(1)
	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"run_id", report.RunID,
		"rows_valid", report.Conversion.Valid,
		"rows_quarantined", report.Conversion.Incompatible,
		"artifacts", len(report.Artifacts),
	)
	return report, nil
}

// stage times fn and records the duration in the report and metrics.
func (p *Pipeline) stage(report *RunReport, name string, fn func() error) error {
	start := domain.Now()
	err := fn()
	elapsed := domain.Since(start)
	report.StageSeconds[name] = elapsed.Seconds()
	p.metrics.StageDuration.WithLabelValues(name).Set(elapsed.Seconds())
	if err != nil {
		p.logger.Error("stage failed", "stage", name, "error", err, "elapsed", elapsed.Round(time.Millisecond))
	}
	return err
}

func (p *Pipeline) record(report *RunReport, tr *Transformation) {
	report.Audits = summarizeAudits(tr.Output.Audits)
	report.EventMonthFilled = tr.EventMonthFilled
	report.Reduction = tr.Reduction
	report.Conversion = tr.Conversion
	report.InitialProfile = tr.InitialProfile
	report.FinalProfile = tr.FinalProfile
	report.ProfileDeltas = profile.Compare(tr.InitialProfile, tr.FinalProfile)

	p.metrics.RowsValid.Add(float64(tr.Conversion.Valid))
	p.metrics.RowsQuarantined.Add(float64(tr.Conversion.Incompatible))
	for _, a := range tr.Output.Audits {
		if len(a.Changes) > 0 {
			p.metrics.ValuesChanged.WithLabelValues(a.Column).Add(float64(len(a.Changes)))
		}
	}
	if tr.Conversion.Incompatible > 0 {
		p.logger.Warn("rows quarantined", "rows", tr.Conversion.Incompatible, "columns", issueColumns(tr.Conversion))
	}
}

func issueColumns(r domain.ConversionReport) []string {
	cols := make([]string, 0, len(r.Issues))
	for c := range r.Issues {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

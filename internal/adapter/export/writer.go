// Package export writes the run outputs to a local directory: the final table
// as CSV and/or parquet, the quarantine table, audit files and the run report.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
)

// Output formats for the final table.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatBoth    = "both"
	formatJSON    = "json"
)

// File names inside the output directory.
const (
	FinalBaseName     = "disturbances"
	QuarantineFile    = "quarantine.csv"
	AuditDir          = "audit"
	AreaStandardDir   = "area_affected_standardization"
	AreaStandardFile  = "area_affected.csv"
	ReportFile        = "run_report.json"
	auditHeaderBefore = "original"
	auditHeaderAfter  = "corrected"
)

// Writer writes run outputs under one directory.
// It implements pipeline.Loader.
type Writer struct {
	dir     string
	csv     bool
	parquet bool
	logger  *slog.Logger
}

// NewWriter creates a Writer for dir. format is csv, parquet or both.
func NewWriter(dir, format string, logger *slog.Logger) (*Writer, error) {
	w := &Writer{dir: dir, logger: logger}
	switch strings.ToLower(format) {
	case FormatCSV, "":
		w.csv = true
	case FormatParquet:
		w.parquet = true
	case FormatBoth:
		w.csv, w.parquet = true, true
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return w, nil
}

// Load writes the final table, quarantine, audits and area standardization
// file and returns what was written.
func (w *Writer) Load(ctx context.Context, out *domain.Output) ([]domain.Artifact, error) {
	var artifacts []domain.Artifact
	add := func(path, format string, rows int) {
		artifacts = append(artifacts, domain.Artifact{Path: path, Format: format, Rows: rows})
		w.logger.Info("artifact written", "path", path, "format", format, "rows", rows)
	}

	final := &out.Final
	if w.csv {
		path := filepath.Join(w.dir, FinalBaseName+".csv")
		if err := writeCSV(path, final.Columns, typedRecords(final)); err != nil {
			return artifacts, err
		}
		add(path, FormatCSV, len(final.Rows))
	}
	if w.parquet {
		path := filepath.Join(w.dir, FinalBaseName+".parquet")
		if err := writeAtomic(path, func(f io.Writer) error { return writeParquet(f, final) }); err != nil {
			return artifacts, err
		}
		add(path, FormatParquet, len(final.Rows))
	}
	if err := ctx.Err(); err != nil {
		return artifacts, err
	}

	path := filepath.Join(w.dir, QuarantineFile)
	header, records := quarantineRecords(out.Quarantine, out.QuarantineColumns)
	if err := writeCSV(path, header, records); err != nil {
		return artifacts, err
	}
	add(path, FormatCSV, len(records))

	for _, a := range out.Audits {
		if len(a.Changes) == 0 {
			continue
		}
		path := filepath.Join(w.dir, AuditDir, a.Column+".csv")
		if err := writeCSV(path, []string{auditHeaderBefore, auditHeaderAfter}, changeRecords(a.Changes)); err != nil {
			return artifacts, err
		}
		add(path, FormatCSV, len(a.Changes))
	}

	path = filepath.Join(w.dir, AreaStandardDir, AreaStandardFile)
	if err := writeCSV(path, []string{auditHeaderBefore, auditHeaderAfter}, changeRecords(out.AreaChanges)); err != nil {
		return artifacts, err
	}
	add(path, FormatCSV, len(out.AreaChanges))

	return artifacts, nil
}

// WriteReport writes v as indented JSON to the run report file.
func (w *Writer) WriteReport(_ context.Context, v any) (domain.Artifact, error) {
	path := filepath.Join(w.dir, ReportFile)
	err := writeAtomic(path, func(f io.Writer) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
	if err != nil {
		return domain.Artifact{}, err
	}
	w.logger.Info("run report written", "path", path)
	return domain.Artifact{Path: path, Format: formatJSON}, nil
}

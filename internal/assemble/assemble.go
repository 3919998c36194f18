// Package assemble reads the yearly source files, finds their header rows,
// reconciles their columns and unions them into one table.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/reconcile"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
)

// YearColumn is the column every unioned row carries.
const YearColumn = "year"

// DefaultMaxHeaderAttempts bounds the header search per file.
const DefaultMaxHeaderAttempts = 5

var yearPrefixRe = regexp.MustCompile(`^(\d+)_`)

var sourceExtensions = map[string]bool{".xlsx": true, ".xlsm": true, ".csv": true, ".xls": true}

// SheetReader returns the raw cell grid of one source file.
type SheetReader interface {
	ReadRows(ctx context.Context, path string) ([][]string, error)
}

// Result is the unioned table plus per-file diagnostics.
type Result struct {
	Table     *domain.Table
	Summaries []domain.ReconciliationSummary
	Skipped   []domain.SkippedFile
	Files     []string
}

// SummariesByYear indexes the reconciliation summaries by source year. When two
// files share a year the later file wins.
func (r Result) SummariesByYear() map[int]domain.ReconciliationSummary {
	out := make(map[int]domain.ReconciliationSummary, len(r.Summaries))
	for _, s := range r.Summaries {
		out[s.Year] = s
	}
	return out
}

// Assembler builds the unioned table from a directory of yearly files.
type Assembler struct {
	dir         string
	reader      SheetReader
	aliases     []rules.ColumnAlias
	maxAttempts int
	logger      *slog.Logger
}

// New creates an Assembler reading dir. maxAttempts <= 0 selects the default bound.
func New(dir string, reader SheetReader, aliases []rules.ColumnAlias, maxAttempts int, logger *slog.Logger) *Assembler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxHeaderAttempts
	}
	return &Assembler{
		dir:         dir,
		reader:      reader,
		aliases:     aliases,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Extract assembles the configured input directory.
func (a *Assembler) Extract(ctx context.Context) (Result, error) {
	return a.Assemble(ctx, a.dir)
}

// Assemble reads every source file in dir. A missing directory or a file name
// without a year prefix aborts before any file is read. Files that cannot be
// read or have no detectable header are skipped and reported.
func (a *Assembler) Assemble(ctx context.Context, dir string) (Result, error) {
	paths, err := ListSources(dir)
	if err != nil {
		return Result{}, err
	}

	years := make([]int, len(paths))
	for i, p := range paths {
		y, err := YearFromFileName(filepath.Base(p))
		if err != nil {
			return Result{}, err
		}
		years[i] = y
	}

	var (
		res    Result
		tables []domain.RawRecordTable
	)
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		rows, err := a.reader.ReadRows(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			a.skip(&res, path, err.Error())
			continue
		}

		raw, ok := BuildRawTable(path, years[i], rows, a.maxAttempts)
		if !ok {
			a.skip(&res, path, fmt.Sprintf("no header row within %d attempts", a.maxAttempts))
			continue
		}

		reconciled, summary := reconcile.Reconcile(raw, a.aliases)
		if _, collided := SnakeColumns(reconciled.Columns); len(collided) > 0 {
			a.logger.Warn("columns share a snake_case name, later ones suffixed",
				"file", filepath.Base(path), "columns", collided)
		}
		if len(summary.Conflicts) > 0 {
			a.logger.Warn("alias left in place, canonical column already present",
				"file", filepath.Base(path), "aliases", summary.Conflicts)
		}
		a.logger.Info("file assembled",
			"file", filepath.Base(path),
			"year", raw.SourceYear,
			"rows", len(raw.Rows),
			"header_row_offset", raw.HeaderRowOffset,
			"renamed", len(summary.Renamed),
			"not_found", summary.NotFound,
			"unexpected", summary.Unexpected,
		)

		tables = append(tables, reconciled)
		res.Summaries = append(res.Summaries, summary)
		res.Files = append(res.Files, path)
	}

	res.Table = Union(tables)
	return res, nil
}

func (a *Assembler) skip(res *Result, path, reason string) {
	a.logger.Warn("skipping source file", "file", filepath.Base(path), "reason", reason)
	res.Skipped = append(res.Skipped, domain.SkippedFile{Path: path, Reason: reason})
}

// ListSources returns the spreadsheet files of dir sorted by name. Hidden files
// and editor lock files are ignored.
func ListSources(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, domain.ErrInputDirNotFound)
		}
		return nil, fmt.Errorf("stat input dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", dir, domain.ErrInputDirNotFound)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if sourceExtensions[strings.ToLower(filepath.Ext(name))] {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out, nil
}

// YearFromFileName parses the leading "<year>_" of a base file name.
func YearFromFileName(name string) (int, error) {
	m := yearPrefixRe.FindStringSubmatch(name)
	if m == nil {
		return 0, &domain.MalformedFileNameError{Name: name}
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &domain.MalformedFileNameError{Name: name}
	}
	return y, nil
}

// BuildRawTable turns a raw grid into a table tagged with its source year.
// Blank cells become null and fully blank rows are dropped.
func BuildRawTable(path string, year int, rows [][]string, maxAttempts int) (domain.RawRecordTable, bool) {
	offset, header, ok := DetectHeader(rows, maxAttempts)
	if !ok {
		return domain.RawRecordTable{}, false
	}

	columns := dedupeNames(header)
	t := domain.RawRecordTable{
		SourceFile:      filepath.Base(path),
		SourceYear:      year,
		HeaderRowOffset: offset,
		Columns:         columns,
	}
	hasYear := false
	for _, c := range columns {
		if c == YearColumn {
			hasYear = true
		}
	}
	if !hasYear {
		t.Columns = append(t.Columns, YearColumn)
	}

	tag := domain.Str(strconv.Itoa(year))
	for _, cells := range rows[offset+1:] {
		row := make(domain.Row, len(t.Columns))
		blank := true
		for i, c := range columns {
			v := domain.Null
			if i < len(cells) && strings.TrimSpace(cells[i]) != "" {
				v = domain.Str(cells[i])
				blank = false
			}
			row[c] = v
		}
		if blank {
			continue
		}
		row[YearColumn] = tag
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

// dedupeNames suffixes repeated header names with ".1", ".2", ...
func dedupeNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if n := seen[h]; n > 0 {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h]++
		out[i] = name
	}
	return out
}

// SnakeColumns maps each column to its snake_case name. Columns whose snake_case
// name is already taken in the same file get a ".1", ".2", ... suffix in column
// order; those columns are returned as collided.
func SnakeColumns(columns []string) (map[string]string, []string) {
	rename := make(map[string]string, len(columns))
	seen := make(map[string]int, len(columns))
	var collided []string
	for _, c := range columns {
		s := domain.SnakeCase(c)
		if n := seen[s]; n > 0 {
			seen[s]++
			s = fmt.Sprintf("%s.%d", s, n)
			collided = append(collided, c)
		} else {
			seen[s] = 1
		}
		rename[c] = s
	}
	return rename, collided
}

// Union concatenates reconciled tables under snake_case column names. Columns
// keep first-seen order; cells a file does not provide are null.
func Union(tables []domain.RawRecordTable) *domain.Table {
	out := &domain.Table{}
	for _, t := range tables {
		rename, _ := SnakeColumns(t.Columns)
		for _, c := range t.Columns {
			out.AddColumn(rename[c])
		}
		for _, r := range t.Rows {
			nr := make(domain.Row, len(r))
			for k, v := range r {
				nr[rename[k]] = v
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	for _, r := range out.Rows {
		for _, c := range out.Columns {
			if _, ok := r[c]; !ok {
				r[c] = domain.Null
			}
		}
	}
	return out
}

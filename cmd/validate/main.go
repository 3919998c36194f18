// Command validate lints the rule tables and, optionally, a directory of
// source files before a batch run. It reports configuration issues, file
// names without a year prefix, unsupported formats, sheets whose header
// cannot be found and canonical columns each file is missing.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -rules config/rules.yaml \
//	  -input data/raw
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/disturbance-data-etl/internal/adapter/sheet"
	"github.com/couchcryptid/disturbance-data-etl/internal/assemble"
	"github.com/couchcryptid/disturbance-data-etl/internal/reconcile"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rulesPath := flag.String("rules", "", "rule table YAML (default: embedded rules)")
	inputDir := flag.String("input", "", "directory of <year>_<label>.<ext> source files to check")
	attempts := flag.Int("max-header-attempts", assemble.DefaultMaxHeaderAttempts, "rows scanned for a header")
	flag.Parse()

	os.Exit(run(*rulesPath, *inputDir, *attempts))
}

func run(rulesPath, inputDir string, attempts int) int {
	fmt.Println("=== Disturbance ETL Validation ===")
	fmt.Println()

	r, err := rules.Load(rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load rules: %v\n", err)
		return 1
	}

	phases := []*phase{validateRules(r)}
	if inputDir != "" {
		paths, err := assemble.ListSources(inputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		fmt.Printf("Sources: %d files in %s\n\n", len(paths), inputDir)
		phases = append(phases,
			validateFileNames(paths),
			validateSources(paths, r.Columns, attempts),
		)
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		if len(p.warnings) > 0 {
			status += fmt.Sprintf(" \033[33m(%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateRules(r *rules.Rules) *phase {
	p := &phase{name: "Rule tables"}
	for _, i := range rules.Validate(r) {
		if i.Severity == rules.SeverityFatal {
			p.errorf("%s: %s", i.Table, i.Message)
		} else {
			p.warnf("%s: %s", i.Table, i.Message)
		}
	}
	return p
}

func validateFileNames(paths []string) *phase {
	p := &phase{name: "File names carry a year"}
	seen := make(map[int]string)
	for _, path := range paths {
		name := filepath.Base(path)
		y, err := assemble.YearFromFileName(name)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		if prev, ok := seen[y]; ok {
			p.warnf("%s and %s share year %d", prev, name, y)
		}
		seen[y] = name
	}
	return p
}

func validateSources(paths []string, aliases []rules.ColumnAlias, attempts int) *phase {
	p := &phase{name: "Sources readable with a header"}
	reader := sheet.NewReader()
	ctx := context.Background()

	for _, path := range paths {
		name := filepath.Base(path)
		if !sheet.Supported(path) {
			p.warnf("%s: unsupported format, the batch will skip it", name)
			continue
		}
		y, err := assemble.YearFromFileName(name)
		if err != nil {
			continue
		}
		grid, err := reader.ReadRows(ctx, path)
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		raw, ok := assemble.BuildRawTable(path, y, grid, attempts)
		if !ok {
			p.errorf("%s: no header row within %d attempts", name, attempts)
			continue
		}
		_, summary := reconcile.Reconcile(raw, aliases)
		if len(summary.NotFound) > 0 {
			p.warnf("%s: missing canonical columns: %s", name, strings.Join(summary.NotFound, ", "))
		}
		if len(summary.Unexpected) > 0 {
			p.warnf("%s: unexpected columns: %s", name, strings.Join(summary.Unexpected, ", "))
		}
		fmt.Printf("  %-30s header row %d, %d rows\n", name, raw.HeaderRowOffset, len(raw.Rows))
	}
	return p
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
)

// ListSeparator joins list values in text outputs.
const ListSeparator = "|"

// Column names appended to quarantined rows.
const (
	QuarantineColumnsField = "quarantine_columns"
	QuarantineReasonsField = "quarantine_reasons"
)

// writeAtomic writes through a temp file in the target directory and renames
// it into place once fn succeeds.
func writeAtomic(path string, fn func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	if err := fn(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, header []string, records [][]string) error {
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(records); err != nil {
			return err
		}
		return cw.Error()
	})
}

func typedRecords(t *domain.TypedTable) [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[i], _ = domain.FormatTyped(row[c], ListSeparator)
		}
		records = append(records, rec)
	}
	return records
}

func quarantineRecords(rows []domain.QuarantineRow, columns []string) ([]string, [][]string) {
	header := append(append([]string(nil), columns...), QuarantineColumnsField, QuarantineReasonsField)
	records := make([][]string, 0, len(rows))
	for _, q := range rows {
		rec := make([]string, 0, len(header))
		for _, c := range columns {
			rec = append(rec, q.Row.Get(c).String())
		}
		failed := q.FailedColumns()
		reasons := make([]string, len(failed))
		for i, c := range failed {
			reasons[i] = c + ": " + q.Failures[c].Reason
		}
		rec = append(rec, strings.Join(failed, ListSeparator), strings.Join(reasons, ListSeparator))
		records = append(records, rec)
	}
	return header, records
}

func changeRecords(changes []domain.Change) [][]string {
	records := make([][]string, len(changes))
	for i, c := range changes {
		records[i] = []string{c.Original, c.Corrected}
	}
	return records
}

package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

func sampleOutput() *domain.Output {
	return &domain.Output{
		Final: domain.TypedTable{
			Columns: []string{"date_event_began", "time_event_began", "area_affected", "affected_states", "demand_loss_(mw)", "year"},
			Types: map[string]domain.ColumnType{
				"date_event_began": domain.TypeDatetime,
				"time_event_began": domain.TypeTime,
				"area_affected":    domain.TypeString,
				"affected_states":  domain.TypeList,
				"demand_loss_(mw)": domain.TypeInteger,
				"year":             domain.TypeInteger,
			},
			Rows: []domain.TypedRow{
				{
					"date_event_began": time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
					"time_event_began": domain.TimeOfDay{Hour: 13, Minute: 30},
					"area_affected":    "texas:ohio",
					"affected_states":  []string{"texas", "ohio"},
					"demand_loss_(mw)": int64(300),
					"year":             int64(2019),
				},
				{"year": int64(2020)},
			},
		},
		Quarantine: []domain.QuarantineRow{{
			Index: 2,
			Row:   domain.Row{"area_affected": domain.Str("maine"), "demand_loss_(mw)": domain.Str("lots")},
			Failures: map[string]domain.CoercionIssue{
				"demand_loss_(mw)": {Row: 2, Value: "lots", Reason: "not an integer"},
			},
		}},
		QuarantineColumns: []string{"area_affected", "demand_loss_(mw)"},
		Audits: []domain.ColumnAudit{
			{Column: "area_affected", Changes: []domain.Change{{Original: "Maine;", Corrected: "maine:"}}},
			{Column: "event_type"},
		},
		AreaChanges: []domain.Change{{Original: "connecicut", Corrected: "connecticut"}},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriter_Load_CSV(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, FormatCSV, slog.Default())
	require.NoError(t, err)

	artifacts, err := w.Load(context.Background(), sampleOutput())
	require.NoError(t, err)
	require.Len(t, artifacts, 4)

	final := readCSV(t, filepath.Join(dir, "disturbances.csv"))
	assert.Equal(t, []string{"date_event_began", "time_event_began", "area_affected", "affected_states", "demand_loss_(mw)", "year"}, final[0])
	assert.Equal(t, []string{"2019-06-01", "13:30:00", "texas:ohio", "texas|ohio", "300", "2019"}, final[1])
	assert.Equal(t, []string{"", "", "", "", "", "2020"}, final[2])

	q := readCSV(t, filepath.Join(dir, QuarantineFile))
	assert.Equal(t, []string{"area_affected", "demand_loss_(mw)", "quarantine_columns", "quarantine_reasons"}, q[0])
	assert.Equal(t, []string{"maine", "lots", "demand_loss_(mw)", "demand_loss_(mw): not an integer"}, q[1])

	audit := readCSV(t, filepath.Join(dir, AuditDir, "area_affected.csv"))
	assert.Equal(t, [][]string{{"original", "corrected"}, {"Maine;", "maine:"}}, audit)
	assert.NoFileExists(t, filepath.Join(dir, AuditDir, "event_type.csv"))

	area := readCSV(t, filepath.Join(dir, AreaStandardDir, AreaStandardFile))
	assert.Equal(t, []string{"connecicut", "connecticut"}, area[1])

	assert.NoFileExists(t, filepath.Join(dir, "disturbances.parquet"))
}

func TestWriter_Load_Parquet(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, FormatBoth, slog.Default())
	require.NoError(t, err)

	_, err = w.Load(context.Background(), sampleOutput())
	require.NoError(t, err)

	path := filepath.Join(dir, "disturbances.parquet")
	require.FileExists(t, path)
	require.FileExists(t, filepath.Join(dir, "disturbances.csv"))

	pf, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer pf.Close()
	pr, err := reader.NewParquetReader(pf, nil, 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	assert.Equal(t, int64(2), pr.GetNumRows())
}

func TestWriter_WriteReport(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "", slog.Default())
	require.NoError(t, err)

	a, err := w.WriteReport(context.Background(), map[string]int{"total": 3})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ReportFile), a.Path)

	b, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":3}`, string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestNewWriter_UnknownFormat(t *testing.T) {
	_, err := NewWriter(t.TempDir(), "xlsx", slog.Default())
	assert.Error(t, err)
}

func TestParquetSchema(t *testing.T) {
	assert.Equal(t, "demand_loss_mw", ParquetName("demand_loss_(mw)"))
	assert.Equal(t, "year", ParquetName("year"))

	schema, err := buildParquetSchema(&sampleOutput().Final)
	require.NoError(t, err)

	var decoded struct {
		Tag    string
		Fields []struct{ Tag string }
	}
	require.NoError(t, json.Unmarshal([]byte(schema), &decoded))
	require.Len(t, decoded.Fields, 6)
	assert.Contains(t, decoded.Fields[0].Tag, "convertedtype=DATE")
	assert.Contains(t, decoded.Fields[1].Tag, "convertedtype=TIME_MILLIS")
	assert.Contains(t, decoded.Fields[3].Tag, "type=LIST")
	assert.Contains(t, decoded.Fields[4].Tag, "name=demand_loss_mw, type=INT64")
}

func TestParquetValue(t *testing.T) {
	assert.Equal(t, int32(18048), parquetValue(time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int32(48600000), parquetValue(domain.TimeOfDay{Hour: 13, Minute: 30}))
	assert.Equal(t, int64(5), parquetValue(int64(5)))
	assert.Nil(t, parquetValue(nil))
}

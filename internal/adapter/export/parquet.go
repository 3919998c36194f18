package export

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

var parquetNameRe = regexp.MustCompile(`[^a-z0-9]+`)

// ParquetName maps a column name to a parquet-safe field name,
// e.g. "demand_loss_(mw)" -> "demand_loss_mw".
func ParquetName(column string) string {
	return strings.Trim(parquetNameRe.ReplaceAllString(strings.ToLower(column), "_"), "_")
}

func parquetField(column string, typ domain.ColumnType) map[string]any {
	name := ParquetName(column)
	switch typ {
	case domain.TypeInteger:
		return map[string]any{"Tag": fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", name)}
	case domain.TypeDatetime:
		return map[string]any{"Tag": fmt.Sprintf("name=%s, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL", name)}
	case domain.TypeTime:
		return map[string]any{"Tag": fmt.Sprintf("name=%s, type=INT32, convertedtype=TIME_MILLIS, repetitiontype=OPTIONAL", name)}
	case domain.TypeList:
		return map[string]any{
			"Tag": fmt.Sprintf("name=%s, type=LIST, repetitiontype=OPTIONAL", name),
			"Fields": []map[string]string{
				{"Tag": "name=element, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"},
			},
		}
	default:
		return map[string]any{"Tag": fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name)}
	}
}

// buildParquetSchema renders the JSON schema understood by the parquet JSON writer.
func buildParquetSchema(t *domain.TypedTable) (string, error) {
	fields := make([]map[string]any, 0, len(t.Columns))
	for _, c := range t.Columns {
		fields = append(fields, parquetField(c, t.Types[c]))
	}
	b, err := json.Marshal(map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	})
	if err != nil {
		return "", fmt.Errorf("marshal parquet schema: %w", err)
	}
	return string(b), nil
}

func parquetValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return int32(x.Unix() / 86400)
	case domain.TimeOfDay:
		return x.Millis()
	default:
		return v
	}
}

func parquetRow(t *domain.TypedTable, row domain.TypedRow) (string, error) {
	out := make(map[string]any, len(t.Columns))
	for _, c := range t.Columns {
		out[ParquetName(c)] = parquetValue(row[c])
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal parquet row: %w", err)
	}
	return string(b), nil
}

func writeParquet(w io.Writer, t *domain.TypedTable) error {
	schema, err := buildParquetSchema(t)
	if err != nil {
		return err
	}
	pfw := writerfile.NewWriterFile(w)
	pw, err := writer.NewJSONWriter(schema, pfw, 4)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range t.Rows {
		rec, err := parquetRow(t, row)
		if err != nil {
			_ = pw.WriteStop()
			return err
		}
		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet file: %w", err)
	}
	return nil
}

package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
)

// Outcome is the result of converting one cell. A failed conversion carries a
// Reason; a null input converts to a nil Value with no Reason.
type Outcome struct {
	Value  any
	Reason string
}

// Failed reports whether the conversion failed.
func (o Outcome) Failed() bool {
	return o.Reason != ""
}

func fail(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Convert converts a cell to the target type.
func Convert(v domain.Value, typ domain.ColumnType, sep string) Outcome {
	if !v.Valid {
		return Outcome{}
	}
	s := strings.TrimSpace(v.S)
	switch typ {
	case domain.TypeInteger:
		return toInteger(s)
	case domain.TypeDatetime:
		return toDate(s)
	case domain.TypeTime:
		return toTimeOfDay(s)
	case domain.TypeList:
		return toList(s, sep)
	case domain.TypeString:
		return Outcome{Value: v.S}
	}
	return fail("unknown target type " + string(typ))
}

func toInteger(s string) Outcome {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Outcome{Value: n}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fail("not an integer")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return fail("not a whole number")
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return fail("integer out of range")
	}
	return Outcome{Value: int64(f)}
}

var dateLayouts = []string{domain.DateLayout, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"}

func toDate(s string) Outcome {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Outcome{Value: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
		}
	}
	return fail("not a date")
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3:04:05PM",
	"3 PM",
	"3PM",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
}

func toTimeOfDay(s string) Outcome {
	u := strings.ToUpper(strings.ReplaceAll(s, ".", ""))
	switch u {
	case "NOON":
		return Outcome{Value: domain.TimeOfDay{Hour: 12}}
	case "MIDNIGHT":
		return Outcome{Value: domain.TimeOfDay{}}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, u); err == nil {
			return Outcome{Value: domain.TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}}
		}
	}

	// Spreadsheet cells store a time as a fraction of a day.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f < 1 {
		secs := int(math.Round(f * 86400))
		if secs >= 86400 {
			secs = 86399
		}
		return Outcome{Value: domain.TimeOfDay{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}}
	}

	// Military time without a colon, e.g. "1330" or "930".
	if len(s) == 3 || len(s) == 4 {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 && n/100 < 24 && n%100 < 60 {
			return Outcome{Value: domain.TimeOfDay{Hour: n / 100, Minute: n % 100}}
		}
	}
	return fail("not a time of day")
}

func toList(s, sep string) Outcome {
	var items []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return Outcome{}
	}
	return Outcome{Value: items}
}

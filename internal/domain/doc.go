// Package domain models electric disturbance event reports and the tables the
// ETL moves them through.
//
// # Data Source
//
// Each source file is one reporting year of the federal Electric Emergency
// Incident and Disturbance Report summaries, exported as a spreadsheet. Files
// follow the naming convention "<year>_<label>.<ext>", e.g. "2019_annual.xlsx".
// The leading integer is the only trusted source of the reporting year.
//
// # Source Conventions
//
// Preamble:
//
//	Most years start with one to four title or note rows before the header.
//	The header is the first row whose cells are all real column names.
//
// Column drift:
//
//	The same field is published under different headers across years, e.g.
//	"Area" / "Area Affected", "Date" / "Date Event Began",
//	"Number of Customers Affected 1[1]" / "Number of Customers Affected".
//
// Area affected:
//
//	Free text listing states and sub-areas. Within an entry ":" separates a
//	state from its sub-areas; older years use ";" or "," instead.
//	"Texas: Harris County, Fort Bend County" and "Maine;" are both common.
//	Footnote markers such as "[13]" are embedded anywhere in the text.
//
// NERC region:
//
//	Comma separated region codes (npcc, mro, rf, serc, wecc, texas re, ...).
//	Older years use the retired acronyms "rfc" and "tre", and "/" or ";" as
//	separators. A bare "re" means the Texas Reliability Entity.
//
// Unknown values:
//
//	"Unknown", "Ongoing", "NaN" and the Excel placeholder date "1/0/1900" mean
//	the value was not reported. They become null, never a sentinel string.
//	"'0'" (a quoted zero) is an explicit zero.
//
// # Null Handling
//
// A [Value] carries explicit null identity. An empty or whitespace-only
// spreadsheet cell is null. No transform turns a null into a non-null value;
// the only exception is the event month fallback, which derives the month from
// the event start date when the month column is missing.
//
// # Typed Values
//
// After coercion a [TypedRow] holds int64 for integer columns, [time.Time] for
// datetime columns (UTC midnight), [TimeOfDay] for time columns, string for
// string columns and []string for list columns. Null is a nil entry.
package domain

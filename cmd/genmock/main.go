// Command genmock writes synthetic yearly disturbance workbooks for demos and
// manual testing. Each file mimics the quirks of the published spreadsheets:
// title rows above the header, column names that drift between years, mixed
// list delimiters, footnote markers, sentinel values and the occasional
// malformed number that the batch will quarantine.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/raw \
//	  -from 2014 -to 2020 \
//	  -rows 40 -seed 7
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/xuri/excelize/v2"
)

// headerCutover is the first year that uses the current column names.
const headerCutover = 2015

var (
	legacyHeader = []string{
		"Month", "Date", "Time", "Date of Restoration", "Time of Restoration", "Area",
		" NERC Region", "Alert Criteria", "Event Type", "Demand Loss (MW)", "Number of Customers Affected 1[1]",
	}
	currentHeader = []string{
		"Event Month", "Date Event Began", "Time Event Began", "Restoration Date", "Restoration Time", "Area Affected",
		"NERC Region", "Alert Criteria", "Event Type", "Demand Loss (MW)", "Number of Customers Affected",
	}

	areas = []string{
		"Texas: Harris County;", "Maine;", "Ohio, Michigan", "City of San Diego", "Henepin and Ramsey County",
		"Connecicut", "Massachusetts: Hampden County[13];", "South East Texas", "Prince George's County, Maryland",
		"\"Washington State\"", "Entire State of Utah", "Unknown",
	}
	regions     = []string{"NPCC", "MRO", "RFC", "SERC", "WECC", "TRE", "SPP", "FRCC", "TRE/RFC", "MPCC; SERC"}
	eventTypes  = []string{"Severe Weather/Thunderstorms", "Vandalism", "Cyber Event", "Load Shed of 100+ MW", "Transmission Fault", "Fuel Supply Emergencies", "Natural Disasters", "Suspicious Activity"}
	alerts      = []string{"Public appeal to reduce the use of electricity", "Physical attack that causes major interruptions", "Loss of electric service to more than 50,000 customers", "Cyber event that causes interruptions"}
	timeFormats = []string{"15:04", "3:04 PM", "3:04 p.m.", "1504"}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for the generated workbooks")
	from := flag.Int("from", 2014, "first year")
	to := flag.Int("to", 2020, "last year")
	rows := flag.Int("rows", 25, "events per year")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *outDir == "" || *from > *to || *rows <= 0 {
		flag.Usage()
		return fmt.Errorf("need -out, -from <= -to and -rows > 0")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Fixed clock so the revision line in every preamble is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2021, time.March, 1, 9, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed))
	total := 0
	for year := *from; year <= *to; year++ {
		path := filepath.Join(*outDir, fmt.Sprintf("%d_Annual_Summary.xlsx", year))
		if err := writeYear(path, year, *rows, rng); err != nil {
			return fmt.Errorf("year %d: %w", year, err)
		}
		log.Printf("%s: %d events", filepath.Base(path), *rows)
		total += *rows
	}
	log.Printf("total: %d events in %d files", total, *to-*from+1)
	return nil
}

func writeYear(path string, year, n int, rng *rand.Rand) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	grid := [][]string{
		{fmt.Sprintf("Electric Disturbance Events (OE-417) %d", year)},
		{"Revised " + domain.Now().Format("January 2, 2006")},
		{},
	}
	if year < headerCutover {
		grid = append(grid, legacyHeader)
	} else {
		grid = append(grid, currentHeader)
	}
	for i := 0; i < n; i++ {
		grid = append(grid, event(year, rng))
	}

	for i, row := range grid {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func event(year int, rng *rand.Rand) []string {
	began := time.Date(year, time.Month(rng.IntN(12)+1), rng.IntN(28)+1, rng.IntN(24), rng.IntN(60), 0, 0, time.UTC)
	restored := began.Add(time.Duration(rng.IntN(72)+1) * time.Hour)

	month := began.Month().String()
	if rng.IntN(10) == 0 {
		month = ""
	}
	restorationDate := restored.Format("1/2/2006")
	switch rng.IntN(12) {
	case 0:
		restorationDate = "Ongoing"
	case 1:
		restorationDate = "1/0/1900"
	}

	return []string{
		month,
		began.Format("1/2/2006"),
		began.Format(pick(rng, timeFormats)),
		restorationDate,
		restored.Format("15:04"),
		pick(rng, areas),
		pick(rng, regions),
		pick(rng, alerts),
		pick(rng, eventTypes),
		demandLoss(rng),
		customers(rng),
	}
}

func demandLoss(rng *rand.Rand) string {
	switch rng.IntN(10) {
	case 0:
		return "Unknown"
	case 1:
		return "approx. " + strconv.Itoa(rng.IntN(500))
	case 2:
		return "'0'"
	}
	return strconv.Itoa(rng.IntN(2000))
}

func customers(rng *rand.Rand) string {
	n := rng.IntN(250000)
	if n >= 1000 && rng.IntN(2) == 0 {
		s := strconv.Itoa(n)
		return s[:len(s)-3] + "," + s[len(s)-3:]
	}
	if rng.IntN(15) == 0 {
		return "UNKNOWN"
	}
	return strconv.Itoa(n)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

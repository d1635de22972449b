// Command parsecheck parses Met Office monthly series files offline with the
// same parser the ingestion service uses, and prints what it found as JSON.
//
// Usage:
//
//	go run ./cmd/parsecheck [-strict] Tmax/date/UK.txt Rainfall/date/Wales.txt
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
)

// fileReport summarizes one parsed file.
type fileReport struct {
	File           string            `json:"file"`
	Stats          domain.ParseStats `json:"stats"`
	FirstYear      int               `json:"first_year,omitempty"`
	LastYear       int               `json:"last_year,omitempty"`
	Points         int               `json:"points"`
	MissingByMonth map[string]int    `json:"missing_by_month"`
	Error          string            `json:"error,omitempty"`
}

func main() {
	strict := flag.Bool("strict", false, "exit non-zero when a file yields no rows")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, flag.Args(), *strict))
}

func run(w io.Writer, files []string, strict bool) int {
	code := 0
	reports := make([]fileReport, 0, len(files))
	for _, f := range files {
		rep := check(f)
		if rep.Error != "" || (strict && rep.Stats.Rows == 0) {
			code = 1
		}
		reports = append(reports, rep)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		return 1
	}
	return code
}

func check(path string) fileReport {
	rep := fileReport{File: path, MissingByMonth: map[string]int{}}

	body, err := os.ReadFile(path)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}

	years, stats := domain.ParseMonthlyWithStats(string(body))
	rep.Stats = stats
	rep.Points = domain.PointCount(years)

	sorted := slices.Sorted(maps.Keys(years))
	if len(sorted) > 0 {
		rep.FirstYear = sorted[0]
		rep.LastYear = sorted[len(sorted)-1]
	}
	for _, months := range years {
		for i, v := range months {
			if !v.Valid {
				rep.MissingByMonth[domain.MonthNames[i]]++
			}
		}
	}
	return rep
}

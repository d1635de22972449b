package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// commentPrefix starts a line that carries no data.
const commentPrefix = "#"

// ParseStats counts what happened to the lines of one file.
type ParseStats struct {
	Lines   int `json:"lines"`   // non-blank, non-comment lines
	Rows    int `json:"rows"`    // lines that produced a year row
	Skipped int `json:"skipped"` // lines dropped as malformed (including headers)
}

// ParseLine parses a single line of a dataset file. It returns false for
// blank lines, comments, lines whose first token is not an integer year, and
// lines with fewer than twelve monthly tokens. Tokens after the twelfth month
// (seasonal and annual aggregates) are ignored.
func ParseLine(line string) (ParsedYearRow, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, commentPrefix) {
		return ParsedYearRow{}, false
	}

	fields := strings.Fields(line)
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return ParsedYearRow{}, false
	}

	tokens := fields[1:]
	if len(tokens) < MonthsPerYear {
		return ParsedYearRow{}, false
	}

	row := ParsedYearRow{Year: year}
	for i := range MonthsPerYear {
		row.Months[i] = NormalizeToken(tokens[i])
	}
	return row, true
}

// ParseMonthly parses a whole dataset body into year -> twelve monthly values.
// A year appearing on more than one line keeps the values of the last line.
func ParseMonthly(body string) map[int][MonthsPerYear]Value {
	years, _ := ParseMonthlyWithStats(body)
	return years
}

// ParseMonthlyWithStats is ParseMonthly that also reports line counts.
func ParseMonthlyWithStats(body string) (map[int][MonthsPerYear]Value, ParseStats) {
	years := make(map[int][MonthsPerYear]Value)
	var stats ParseStats

	for raw := range strings.Lines(body) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		stats.Lines++

		row, ok := ParseLine(line)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Rows++
		years[row.Year] = row.Months
	}
	return years, stats
}

// PointCount is the number of storage points a parsed file expands to.
func PointCount(years map[int][MonthsPerYear]Value) int {
	return len(years) * MonthsPerYear
}

func sortedYears(years map[int][MonthsPerYear]Value) []int {
	return slices.Sorted(maps.Keys(years))
}

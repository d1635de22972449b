package domain

import (
	"errors"
	"fmt"
)

// MonthsPerYear is the number of monthly columns in every data row.
const MonthsPerYear = 12

var (
	// ErrNoDataset means every candidate URL for a combination was exhausted
	// without a usable body.
	ErrNoDataset = errors.New("no dataset found")

	// ErrUpstreamUnavailable means the fetcher refused to contact the
	// dataset host because it was recently unreachable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable (circuit open)")

	// ErrUnmappedParameter means a parameter key has a URL layout but no
	// storage parameter. It indicates a catalog bug, not a data issue.
	ErrUnmappedParameter = errors.New("parameter not mapped")

	// ErrRegionNotFound is returned by read queries for an unknown region code.
	ErrRegionNotFound = errors.New("region not found")
)

// MonthNames are the short month labels used by the pack projections.
var MonthNames = [MonthsPerYear]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Region is a UK climate region as published by the Met Office.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Parameter is the storage-level code of a measured quantity.
type Parameter string

const (
	ParamTmax      Parameter = "Tmax"
	ParamTmin      Parameter = "Tmin"
	ParamTmean     Parameter = "Tmean"
	ParamSun       Parameter = "Sun"
	ParamRain      Parameter = "Rain"
	ParamRaindays  Parameter = "Raindays"
	ParamFrostDays Parameter = "Frost"
)

var parameterLabels = map[Parameter]string{
	ParamTmax:      "Max temp",
	ParamTmin:      "Min temp",
	ParamTmean:     "Mean temp",
	ParamSun:       "Sunshine",
	ParamRain:      "Rainfall",
	ParamRaindays:  "Rain days >=1.0mm",
	ParamFrostDays: "Days of air frost",
}

// Parameters returns every storage parameter in declaration order.
func Parameters() []Parameter {
	return []Parameter{ParamTmax, ParamTmin, ParamTmean, ParamSun, ParamRain, ParamRaindays, ParamFrostDays}
}

// Label returns the human-readable label, or the code itself if unknown.
func (p Parameter) Label() string {
	if l, ok := parameterLabels[p]; ok {
		return l
	}
	return string(p)
}

// Valid reports whether p is a member of the closed parameter set.
func (p Parameter) Valid() bool {
	_, ok := parameterLabels[p]
	return ok
}

// Value is an optional measurement. The zero Value is missing.
type Value struct {
	V     float64
	Valid bool
}

// Some returns a present Value.
func Some(v float64) Value {
	return Value{V: v, Valid: true}
}

// Missing returns an absent Value.
func Missing() Value {
	return Value{}
}

// Ptr returns the value as a *float64, nil when missing. Used for JSON nulls.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.V
	return &f
}

func (v Value) String() string {
	if !v.Valid {
		return "missing"
	}
	return fmt.Sprintf("%g", v.V)
}

// ParsedYearRow is one data line: a year and its twelve monthly values.
type ParsedYearRow struct {
	Year   int
	Months [MonthsPerYear]Value
}

// MonthlyPoint is the unit of storage. (Region, Parameter, Year, Month) is
// its identity.
type MonthlyPoint struct {
	Region    string    `json:"region"`
	Parameter Parameter `json:"parameter"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Value     Value     `json:"-"`
}

// Validate checks the identity fields of a point.
func (p MonthlyPoint) Validate() error {
	if p.Region == "" {
		return errors.New("point: region is required")
	}
	if !p.Parameter.Valid() {
		return fmt.Errorf("point: unknown parameter %q", p.Parameter)
	}
	if p.Month < 1 || p.Month > MonthsPerYear {
		return fmt.Errorf("point: month %d out of range", p.Month)
	}
	return nil
}

// Points expands parsed rows into storage points for one region/parameter.
// Years are emitted in ascending order.
func Points(region string, param Parameter, years map[int][MonthsPerYear]Value) []MonthlyPoint {
	keys := sortedYears(years)
	points := make([]MonthlyPoint, 0, len(keys)*MonthsPerYear)
	for _, year := range keys {
		months := years[year]
		for i, v := range months {
			points = append(points, MonthlyPoint{
				Region:    region,
				Parameter: param,
				Year:      year,
				Month:     i + 1,
				Value:     v,
			})
		}
	}
	return points
}

// UpsertResult tells whether a write inserted a new key or overwrote one.
type UpsertResult int

const (
	UpsertCreated UpsertResult = iota + 1
	UpsertUpdated
)

func (r UpsertResult) String() string {
	switch r {
	case UpsertCreated:
		return "created"
	case UpsertUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// WriteCounts tallies upsert results.
type WriteCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Add records one result.
func (w *WriteCounts) Add(r UpsertResult) {
	switch r {
	case UpsertCreated:
		w.Created++
	case UpsertUpdated:
		w.Updated++
	}
}

// Total is the number of points touched.
func (w WriteCounts) Total() int {
	return w.Created + w.Updated
}

package domain

import "time"

// ReportStatus is the terminal state of one combination within a run.
type ReportStatus string

const (
	StatusFetched ReportStatus = "fetched"
	StatusSkipped ReportStatus = "skipped"
	StatusError   ReportStatus = "error"
)

// CombinationReport describes what happened to one region/parameter pair.
type CombinationReport struct {
	RunID       string        `json:"run_id"`
	Region      string        `json:"region"`
	ParamKey    string        `json:"param_key"`
	Status      ReportStatus  `json:"status"`
	Location    string        `json:"location,omitempty"`
	Attempts    int           `json:"attempts"`
	RowsParsed  int           `json:"rows_parsed"`
	RowsSkipped int           `json:"rows_skipped"`
	Created     int           `json:"created"`
	Updated     int           `json:"updated"`
	Reason      string        `json:"reason,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// Key identifies the combination, e.g. "UK/Tmax".
func (r CombinationReport) Key() string {
	return r.Region + "/" + r.ParamKey
}

// RunSummary aggregates the reports of one ingestion run.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Combinations int       `json:"combinations"`
	Fetched      int       `json:"fetched"`
	Skipped      int       `json:"skipped"`
	Errors       int       `json:"errors"`
	Created      int       `json:"created"`
	Updated      int       `json:"updated"`

	Reports []CombinationReport `json:"-"`
}

// Add folds one report into the summary.
func (s *RunSummary) Add(r CombinationReport) {
	s.Combinations++
	switch r.Status {
	case StatusFetched:
		s.Fetched++
	case StatusSkipped:
		s.Skipped++
	case StatusError:
		s.Errors++
	}
	s.Created += r.Created
	s.Updated += r.Updated
	s.Reports = append(s.Reports, r)
}

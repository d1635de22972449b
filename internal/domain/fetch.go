package domain

import (
	"context"
	"strings"
)

// FetchOutcome classifies a single candidate fetch.
type FetchOutcome string

const (
	OutcomeOK               FetchOutcome = "ok"
	OutcomeNotFound         FetchOutcome = "not_found"
	OutcomeTransportError   FetchOutcome = "transport_error"
	OutcomeEmpty            FetchOutcome = "empty"
	OutcomeUnexpectedStatus FetchOutcome = "unexpected_status"
	OutcomeCircuitOpen      FetchOutcome = "circuit_open"
)

// FetchResult is the classified response for one candidate URL. Body is set
// only for OutcomeOK. Err carries the cause of a transport error.
type FetchResult struct {
	Location string       `json:"location"`
	Body     string       `json:"-"`
	Status   int          `json:"status,omitempty"`
	Outcome  FetchOutcome `json:"outcome"`
	Err      error        `json:"-"`
}

// Fetcher retrieves one dataset by URL. Implementations never return
// expected network conditions as errors; they classify them in the result.
type Fetcher interface {
	Fetch(ctx context.Context, location string) FetchResult
}

// FetchFirst tries candidates in order and returns the first result with a
// non-blank body, along with every attempt made. When all candidates fail it
// returns ErrNoDataset. A candidate rejected by an open circuit stops the loop
// with ErrUpstreamUnavailable. A cancelled context stops the loop with
// ctx.Err(), including when it is cancelled during the last attempt.
func FetchFirst(ctx context.Context, f Fetcher, candidates []string) (FetchResult, []FetchResult, error) {
	attempts := make([]FetchResult, 0, len(candidates))
	for _, loc := range candidates {
		if err := ctx.Err(); err != nil {
			return FetchResult{}, attempts, err
		}
		res := f.Fetch(ctx, loc)
		if res.Outcome == OutcomeOK && strings.TrimSpace(res.Body) == "" {
			res.Outcome = OutcomeEmpty
			res.Body = ""
		}
		attempts = append(attempts, res)
		switch res.Outcome {
		case OutcomeOK:
			return res, attempts, nil
		case OutcomeCircuitOpen:
			return FetchResult{}, attempts, ErrUpstreamUnavailable
		}
	}
	if err := ctx.Err(); err != nil {
		return FetchResult{}, attempts, err
	}
	return FetchResult{}, attempts, ErrNoDataset
}

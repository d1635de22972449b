package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
	"github.com/couchcryptid/met-climate-etl/internal/observability"
)

// ReportPublisher ships combination reports to an external sink.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report domain.CombinationReport) error
}

// Reporter logs, counts and optionally publishes combination reports for a
// single run. Publishing failures never fail the run.
type Reporter struct {
	publisher ReportPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu      sync.Mutex
	summary domain.RunSummary
}

// NewReporter starts a summary for runID. publisher may be nil.
func NewReporter(runID string, startedAt time.Time, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics) *Reporter {
	return &Reporter{
		publisher: publisher,
		logger:    logger.With("run_id", runID),
		metrics:   metrics,
		summary:   domain.RunSummary{RunID: runID, StartedAt: startedAt},
	}
}

// Record emits one report.
func (r *Reporter) Record(ctx context.Context, rep domain.CombinationReport) {
	r.mu.Lock()
	r.summary.Add(rep)
	r.mu.Unlock()

	r.metrics.Combinations.WithLabelValues(string(rep.Status)).Inc()

	attrs := []any{
		"region", rep.Region,
		"param", rep.ParamKey,
		"attempts", rep.Attempts,
		"duration", rep.Duration,
	}
	switch rep.Status {
	case domain.StatusFetched:
		r.logger.Info("combination fetched", append(attrs,
			"url", rep.Location,
			"rows", rep.RowsParsed,
			"created", rep.Created,
			"updated", rep.Updated,
		)...)
	case domain.StatusSkipped:
		r.logger.Error("combination skipped", append(attrs, "error", rep.Reason)...)
	default:
		r.logger.Error("combination failed", append(attrs, "error", rep.Reason)...)
	}

	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishReport(ctx, rep); err != nil {
		r.metrics.ReportPublishErrors.Inc()
		r.logger.Warn("publish report failed", "region", rep.Region, "param", rep.ParamKey, "error", err)
	}
}

// Summary closes the run summary at finishedAt and logs it.
func (r *Reporter) Summary(finishedAt time.Time) domain.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary.FinishedAt = finishedAt
	s := r.summary
	s.Reports = append([]domain.CombinationReport(nil), r.summary.Reports...)

	r.logger.Info("run finished",
		"combinations", s.Combinations,
		"fetched", s.Fetched,
		"skipped", s.Skipped,
		"errors", s.Errors,
		"created", s.Created,
		"updated", s.Updated,
		"duration", finishedAt.Sub(s.StartedAt),
	)
	return s
}

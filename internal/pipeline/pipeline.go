package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
	"github.com/couchcryptid/met-climate-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// Store is everything the pipeline needs from persistence.
type Store interface {
	PointWriter
	EnsureRegions(ctx context.Context, regions []domain.Region) error
}

// Settings tunes a Pipeline.
type Settings struct {
	Workers   int
	BatchSize int
}

// Pipeline runs one ingestion pass over every catalog combination:
// resolve, fetch, parse, merge, report.
type Pipeline struct {
	catalog   *domain.Catalog
	resolver  *domain.Resolver
	fetcher   domain.Fetcher
	store     Store
	merger    *Merger
	publisher ReportPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	workers   int

	running atomic.Bool
	ready   atomic.Bool
}

// New creates a Pipeline. publisher may be nil.
func New(
	catalog *domain.Catalog,
	resolver *domain.Resolver,
	fetcher domain.Fetcher,
	store Store,
	publisher ReportPublisher,
	logger *slog.Logger,
	metrics *observability.Metrics,
	clock clockwork.Clock,
	settings Settings,
) *Pipeline {
	workers := settings.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		catalog:   catalog,
		resolver:  resolver,
		fetcher:   fetcher,
		store:     store,
		merger:    NewMerger(store, settings.BatchSize, metrics),
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		workers:   workers,
	}
}

// CheckReadiness returns nil once at least one run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no ingestion run has completed yet")
	}
	return nil
}

// Run executes one ingestion pass. Per-combination problems (no dataset,
// unmapped parameter) are reported and the run continues. A storage error
// aborts the run and is returned along with the reports gathered so far, as
// is a cancelled context.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return domain.RunSummary{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	runID := uuid.NewString()
	started := p.clock.Now()
	reporter := NewReporter(runID, started, p.publisher, p.logger, p.metrics)
	combos := p.catalog.Combinations()
	p.logger.Info("run started", "run_id", runID, "combinations", len(combos), "workers", p.workers)

	err := p.run(ctx, runID, combos, reporter)

	finished := p.clock.Now()
	summary := reporter.Summary(finished)
	p.metrics.RunDuration.Observe(finished.Sub(started).Seconds())

	if err != nil {
		p.metrics.LastRunSuccess.Set(0)
		p.logger.Error("run aborted", "run_id", runID, "error", err)
		return summary, err
	}
	p.metrics.LastRunSuccess.Set(1)
	p.ready.Store(true)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, combos []domain.Combination, reporter *Reporter) error {
	if err := p.store.EnsureRegions(ctx, p.catalog.Regions()); err != nil {
		return fmt.Errorf("ensure regions: %w", err)
	}

	reports := make([]domain.CombinationReport, len(combos))
	done := make([]bool, len(combos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, c := range combos {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := p.ingest(gctx, runID, c)
			reports[i] = rep
			done[i] = rep.Status != ""
			return err
		})
	}
	err := g.Wait()

	// Reports go out in catalog order regardless of completion order.
	for i, rep := range reports {
		if done[i] {
			reporter.Record(context.WithoutCancel(ctx), rep)
		}
	}

	if err == nil {
		err = ctx.Err()
	}
	return err
}

// ingest processes one combination. Only systemic failures are returned as
// errors; everything else is captured in the report.
func (p *Pipeline) ingest(ctx context.Context, runID string, c domain.Combination) (domain.CombinationReport, error) {
	start := p.clock.Now()
	rep := domain.CombinationReport{RunID: runID, Region: c.Region.Code, ParamKey: c.ParamKey}
	finish := func(status domain.ReportStatus, reason string) domain.CombinationReport {
		rep.Status = status
		rep.Reason = reason
		rep.FinishedAt = p.clock.Now()
		rep.Duration = rep.FinishedAt.Sub(start)
		return rep
	}

	kind, ok := p.catalog.Kind(c.ParamKey)
	if !ok {
		return finish(domain.StatusError, fmt.Errorf("%w: %s", domain.ErrUnmappedParameter, c.ParamKey).Error()), nil
	}

	candidates := p.resolver.Candidates(c.Region.Code, c.ParamKey)
	res, attempts, err := domain.FetchFirst(ctx, p.fetcher, candidates)
	rep.Attempts = len(attempts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoDataset):
			return finish(domain.StatusSkipped, fmt.Sprintf("%s after %d candidates", err, len(attempts))), nil
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			return finish(domain.StatusSkipped, err.Error()), nil
		}
		return rep, err
	}
	rep.Location = res.Location

	years, stats := domain.ParseMonthlyWithStats(res.Body)
	rep.RowsParsed = stats.Rows
	rep.RowsSkipped = stats.Skipped
	p.metrics.RowsParsed.Add(float64(stats.Rows))
	p.metrics.RowsSkipped.Add(float64(stats.Skipped))

	counts, err := p.merger.Merge(ctx, c.Region.StorageCode(), kind, years)
	rep.Created = counts.Created
	rep.Updated = counts.Updated
	if err != nil {
		return finish(domain.StatusError, err.Error()), err
	}
	return finish(domain.StatusFetched, ""), nil
}

package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
	"github.com/couchcryptid/met-climate-etl/internal/observability"
)

// PointWriter is the write side of the monthly store.
type PointWriter interface {
	UpsertBatch(ctx context.Context, points []domain.MonthlyPoint) (domain.WriteCounts, error)
}

// Merger turns parsed year rows into stored points.
type Merger struct {
	store     PointWriter
	batchSize int
	metrics   *observability.Metrics
}

// NewMerger creates a Merger writing at most batchSize points per transaction.
func NewMerger(store PointWriter, batchSize int, metrics *observability.Metrics) *Merger {
	if batchSize < 1 {
		batchSize = domain.MonthsPerYear
	}
	return &Merger{store: store, batchSize: batchSize, metrics: metrics}
}

// Merge upserts twelve points per parsed year for one region and parameter.
// A storage error stops the merge and is returned; batches committed before
// it stay committed.
func (m *Merger) Merge(ctx context.Context, region string, kind domain.Parameter, years map[int][domain.MonthsPerYear]domain.Value) (domain.WriteCounts, error) {
	var total domain.WriteCounts
	points := domain.Points(region, kind, years)

	for batch := range slices.Chunk(points, m.batchSize) {
		counts, err := m.store.UpsertBatch(ctx, batch)
		if err != nil {
			return total, fmt.Errorf("merge %s/%s: %w", region, kind, err)
		}
		total.Created += counts.Created
		total.Updated += counts.Updated
		m.metrics.PointsWritten.WithLabelValues(domain.UpsertCreated.String()).Add(float64(counts.Created))
		m.metrics.PointsWritten.WithLabelValues(domain.UpsertUpdated.String()).Add(float64(counts.Updated))
	}
	return total, nil
}

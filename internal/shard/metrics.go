package shard

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const shardInstrumentationName = "github.com/fyrsmithlabs/recalld/internal/shard"

// Metrics holds shard store metrics.
type Metrics struct {
	meter          metric.Meter
	logger         *zap.Logger
	searchDuration metric.Float64Histogram
	addedVectors   metric.Int64Counter
	rebuilds       metric.Int64Counter
	rebuildSize    metric.Int64Histogram
}

// NewMetrics creates a new Metrics instance for the shard store.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(shardInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.searchDuration, err = m.meter.Float64Histogram(
		"recalld.shard.search_duration_seconds",
		metric.WithDescription("Duration of shard similarity searches in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0),
	)
	if err != nil {
		m.logger.Warn("failed to create search duration histogram", zap.Error(err))
	}

	m.addedVectors, err = m.meter.Int64Counter(
		"recalld.shard.vectors_added_total",
		metric.WithDescription("Total vectors appended across all owner shards"),
		metric.WithUnit("{vector}"),
	)
	if err != nil {
		m.logger.Warn("failed to create added vectors counter", zap.Error(err))
	}

	m.rebuilds, err = m.meter.Int64Counter(
		"recalld.shard.rebuilds_total",
		metric.WithDescription("Total full shard rebuilds triggered by vector updates"),
		metric.WithUnit("{rebuild}"),
	)
	if err != nil {
		m.logger.Warn("failed to create rebuilds counter", zap.Error(err))
	}

	m.rebuildSize, err = m.meter.Int64Histogram(
		"recalld.shard.rebuild_size",
		metric.WithDescription("Shard size at rebuild time; rebuilds are O(shard size)"),
		metric.WithUnit("{vector}"),
		metric.WithExplicitBucketBoundaries(10, 50, 100, 500, 1000, 5000, 10000),
	)
	if err != nil {
		m.logger.Warn("failed to create rebuild size histogram", zap.Error(err))
	}
}

// RecordSearch records one search against a shard of the given size.
func (m *Metrics) RecordSearch(ctx context.Context, duration time.Duration, _ int) {
	if m.searchDuration != nil {
		m.searchDuration.Record(ctx, duration.Seconds())
	}
}

// RecordAdd records appended vectors.
func (m *Metrics) RecordAdd(ctx context.Context, count int) {
	if m.addedVectors != nil {
		m.addedVectors.Add(ctx, int64(count))
	}
}

// RecordRebuild records a full rebuild of a shard with the given size.
func (m *Metrics) RecordRebuild(ctx context.Context, size int) {
	if m.rebuilds != nil {
		m.rebuilds.Add(ctx, 1)
	}
	if m.rebuildSize != nil {
		m.rebuildSize.Record(ctx, int64(size))
	}
}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricMergeInputs    = "v8cov.merge.inputs.total"
	metricMergeScripts   = "v8cov.merge.scripts.total"
	metricMergeFunctions = "v8cov.merge.functions.total"
	metricMergeDuration  = "v8cov.merge.duration.seconds"

	attrLevel = "level"
)

// Merge levels reported in the level attribute.
const (
	LevelProcess  = "process"
	LevelScript   = "script"
	LevelFunction = "function"
)

// MergeStats describes one completed merge.
type MergeStats struct {
	// Level is one of LevelProcess, LevelScript or LevelFunction.
	Level string
	// Inputs is the number of coverage values that were merged.
	Inputs int
	// Scripts is the number of scripts in the result.
	Scripts int
	// Functions is the number of functions in the result.
	Functions int
	// Duration is the wall time spent merging.
	Duration time.Duration
}

// MergeMetrics holds the OTel instruments describing merge workloads.
type MergeMetrics struct {
	inputs    metric.Int64Counter
	scripts   metric.Int64Counter
	functions metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMergeMetrics creates merge metric instruments from the given meter.
func NewMergeMetrics(mt metric.Meter) (*MergeMetrics, error) {
	inputs, err := mt.Int64Counter(metricMergeInputs,
		metric.WithDescription("Coverage values consumed by merges"),
		metric.WithUnit("{input}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMergeInputs, err)
	}

	scripts, err := mt.Int64Counter(metricMergeScripts,
		metric.WithDescription("Scripts produced by merges"),
		metric.WithUnit("{script}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMergeScripts, err)
	}

	functions, err := mt.Int64Counter(metricMergeFunctions,
		metric.WithDescription("Functions produced by merges"),
		metric.WithUnit("{function}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMergeFunctions, err)
	}

	duration, err := mt.Float64Histogram(metricMergeDuration,
		metric.WithDescription("Merge duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMergeDuration, err)
	}

	return &MergeMetrics{
		inputs:    inputs,
		scripts:   scripts,
		functions: functions,
		duration:  duration,
	}, nil
}

// RecordMerge records the counters and duration of one merge.
// Safe to call on a nil receiver.
func (mm *MergeMetrics) RecordMerge(ctx context.Context, stats MergeStats) {
	if mm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrLevel, stats.Level))

	mm.inputs.Add(ctx, int64(stats.Inputs), attrs)
	mm.scripts.Add(ctx, int64(stats.Scripts), attrs)
	mm.functions.Add(ctx, int64(stats.Functions), attrs)
	mm.duration.Record(ctx, stats.Duration.Seconds(), attrs)
}

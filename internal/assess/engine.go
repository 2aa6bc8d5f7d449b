package assess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapguard/internal/dataset"
	"github.com/leapstack-labs/leapguard/internal/metadata"
	"github.com/leapstack-labs/leapguard/internal/rules"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// DefaultSampleLimit bounds how many rows an assessment scans.
const DefaultSampleLimit = 100_000

// DefaultWorkers is the rule evaluation pool size per dimension.
const DefaultWorkers = 4

// DefaultOutlierThreshold is the z-score cutoff for discovery-mode
// outlier detection.
const DefaultOutlierThreshold = 3.0

// Config holds engine configuration.
type Config struct {
	// Registry holds user-defined rule kinds. Optional.
	Registry *rules.Registry

	// Bands is the readiness classification table. Defaults to
	// quality.DefaultBands.
	Bands quality.BandTable

	// SampleLimit caps the rows scanned per assessment. Zero means
	// DefaultSampleLimit; negative disables sampling.
	SampleLimit int

	// Workers is the per-dimension rule evaluation pool size.
	Workers int

	// OutlierThreshold is the z-score cutoff for discovery heuristics.
	OutlierThreshold float64

	// Logger is the structured logger (optional, discard if nil).
	Logger *slog.Logger
}

// Engine assesses datasets. It is safe for concurrent use.
type Engine struct {
	registry         *rules.Registry
	bands            quality.BandTable
	sampleLimit      int
	workers          int
	outlierThreshold float64
	logger           *slog.Logger
	now              func() time.Time
}

// New creates an assessment engine. The readiness band table is
// validated up front; an invalid table is a configuration error.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bands := cfg.Bands
	if bands == nil {
		bands = quality.DefaultBands()
	}
	if err := bands.Validate(); err != nil {
		return nil, quality.WrapConfigurationError(err, "invalid readiness bands")
	}
	sampleLimit := cfg.SampleLimit
	if sampleLimit == 0 {
		sampleLimit = DefaultSampleLimit
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	threshold := cfg.OutlierThreshold
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}
	registry := cfg.Registry
	if registry == nil {
		registry = rules.NewRegistry(nil)
	}
	return &Engine{
		registry:         registry,
		bands:            bands,
		sampleLimit:      sampleLimit,
		workers:          workers,
		outlierThreshold: threshold,
		logger:           logger,
		now:              time.Now,
	}, nil
}

// WithClock overrides the engine clock. Used in tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Bands returns the engine's readiness band table.
func (e *Engine) Bands() quality.BandTable { return e.bands }

// Assess evaluates all five dimensions of a dataset and aggregates the
// results into a report. Dimensions with a companion metadata document
// are assessed explicitly; the rest fall back to discovery heuristics.
func (e *Engine) Assess(ctx context.Context, ds *dataset.Dataset, meta metadata.Set) (*quality.AssessmentReport, error) {
	if ds == nil {
		return nil, quality.NewConfigurationError("no dataset to assess")
	}

	sampled := ds
	if e.sampleLimit > 0 {
		sampled = ds.Prefix(e.sampleLimit)
	}
	if sampled.Sampled {
		e.logger.Debug("assessing sampled dataset",
			"source", ds.Name, "rows", sampled.RowCount(), "total_rows", ds.TotalRows)
	}

	results := make(map[quality.Dimension]quality.DimensionResult, 5)
	for _, dim := range quality.Dimensions() {
		explicit := meta.Explicit(dim)
		var (
			ruleSet []rules.Rule
			err     error
		)
		if explicit {
			ruleSet, err = ExplicitRules(meta[dim], e.registry)
			if err != nil {
				return nil, fmt.Errorf("dimension %s: %w", dim, err)
			}
		} else {
			ruleSet = DiscoveryRules(sampled, dim, e.outlierThreshold)
		}
		res := AssessDimension(ctx, sampled, dim, ruleSet, e.registry, explicit, e.workers)
		e.logger.Debug("assessed dimension",
			"source", ds.Name, "dimension", dim, "score", res.Score, "explicit", explicit)
		results[dim] = res
	}

	overall := Aggregate(results, nil)
	report := &quality.AssessmentReport{
		ID:           uuid.NewString(),
		OverallScore: overall,
		Readiness:    e.bands.Classify(overall),
		SourceName:   ds.Name,
		SourceType:   ds.SourceType,
		Mode:         meta.Mode(),
		Dimensions:   results,
		Sampled:      sampled.Sampled,
		CreatedAt:    e.now().UTC(),
		Version:      quality.ReportVersion,
	}
	e.logger.Info("assessment complete",
		"source", ds.Name, "overall_score", report.OverallScore,
		"readiness", report.Readiness, "mode", report.Mode)
	return report, nil
}

package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/leapguard/internal/assess"
	"github.com/leapstack-labs/leapguard/internal/dataset"
	internalguard "github.com/leapstack-labs/leapguard/internal/guard"
	"github.com/leapstack-labs/leapguard/internal/metadata"
	"github.com/leapstack-labs/leapguard/internal/source"
	"github.com/leapstack-labs/leapguard/internal/template"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// Args carries a wrapped call's arguments. Named arguments take
// precedence over positional ones when locating the data source.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Func is the shape of a guardable function.
type Func func(ctx context.Context, args Args) (any, error)

// Recorder persists assessment reports to an audit trail. Optional;
// persistence failures never change a guard decision.
type Recorder interface {
	Record(ctx context.Context, report *quality.AssessmentReport) error
}

// Options supplies the collaborators a Guard runs with. Zero-value
// fields get working defaults.
type Options struct {
	// Engine performs assessments. Defaults to an engine with default
	// configuration.
	Engine *assess.Engine

	// Sources resolves string data-source references. Defaults to
	// source.DefaultRegistry.
	Sources *source.Registry

	// Templates resolves templates by ID. Required when Config names a
	// TemplateID.
	Templates *template.Registry

	// Recorder receives every fresh report. Optional.
	Recorder Recorder

	// Logger is the structured logger. Discards if nil.
	Logger *slog.Logger
}

// Guard intercepts calls to a wrapped function, assesses the call's
// data-source argument, and proceeds, warns, or blocks per its
// configuration. Safe for concurrent use.
type Guard struct {
	cfg      Config
	engine   *assess.Engine
	sources  *source.Registry
	recorder Recorder
	logger   *slog.Logger
	cache    *internalguard.Cache

	minScore float64
	dimMins  map[quality.Dimension]float64
	weights  assess.Weights
}

// New validates the configuration, resolves any referenced template,
// and returns a ready Guard. Invalid configuration is reported here
// rather than at call time wherever it can be.
func New(cfg Config, opts Options) (*Guard, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.OnFailure == "" {
		cfg.OnFailure = FailRaise
	}
	if _, ok := ParseFailureMode(string(cfg.OnFailure)); !ok {
		return nil, configErrorf("unknown failure mode %q", cfg.OnFailure)
	}
	if cfg.SourceParam == "" && cfg.SourceIndex < 0 {
		return nil, configErrorf("no data-source parameter configured")
	}
	if cfg.MinScore < 0 || cfg.MinScore > quality.MaxOverallScore {
		return nil, configErrorf("minimum score %.1f outside [0, %.0f]", cfg.MinScore, quality.MaxOverallScore)
	}
	for d, min := range cfg.DimensionMinimums {
		if _, ok := quality.ParseDimension(string(d)); !ok {
			return nil, configErrorf("unknown dimension %q in minimums", d)
		}
		if min < 0 || min > quality.DimensionMaxScore {
			return nil, configErrorf("%s minimum %.1f outside [0, %.0f]", d, min, quality.DimensionMaxScore)
		}
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = DefaultReportDir
	}

	engine := opts.Engine
	if engine == nil {
		var err error
		engine, err = assess.New(assess.Config{Logger: logger, SampleLimit: cfg.SampleLimit})
		if err != nil {
			return nil, err
		}
	}
	sources := opts.Sources
	if sources == nil {
		sources = source.DefaultRegistry()
	}

	g := &Guard{
		cfg:      cfg,
		engine:   engine,
		sources:  sources,
		recorder: opts.Recorder,
		logger:   logger,
		cache:    internalguard.NewCache(cfg.CacheDir, logger),
		minScore: cfg.MinScore,
		dimMins:  make(map[quality.Dimension]float64, len(cfg.DimensionMinimums)),
	}

	tpl, err := resolveTemplate(cfg, opts.Templates)
	if err != nil {
		return nil, err
	}
	if tpl != nil {
		if g.minScore == 0 {
			g.minScore = tpl.OverallMinimum
		}
		for d, req := range tpl.DimensionRequirements {
			g.dimMins[d] = req.MinimumScore
		}
		if tpl.Weighted() {
			g.weights = tpl.Weights()
		}
	}
	// Explicit minimums override template requirements.
	for d, min := range cfg.DimensionMinimums {
		g.dimMins[d] = min
	}
	return g, nil
}

func resolveTemplate(cfg Config, templates *template.Registry) (*template.Template, error) {
	switch {
	case cfg.TemplatePath != "":
		tpl, err := template.Load(cfg.TemplatePath, nil)
		if err != nil {
			return nil, &ConfigurationError{Msg: "loading template", Err: err}
		}
		return tpl, nil
	case cfg.TemplateID != "":
		if templates == nil {
			return nil, configErrorf("template %q requested but no template registry supplied", cfg.TemplateID)
		}
		tpl, err := templates.Get(cfg.TemplateID, cfg.TemplateVersion)
		if err != nil {
			return nil, &ConfigurationError{Msg: "resolving template", Err: err}
		}
		return tpl, nil
	default:
		return nil, nil
	}
}

// Wrap returns a new callable that runs the quality check before
// delegating to fn. In raise mode a failing check returns a
// *QualityError and fn never executes; in warn and log modes fn runs
// after the failure is reported.
func (g *Guard) Wrap(fn Func) Func {
	return func(ctx context.Context, args Args) (any, error) {
		report, err := g.Check(ctx, args)
		if err != nil {
			var qerr *QualityError
			if !errors.As(err, &qerr) {
				return nil, err
			}
			switch g.cfg.OnFailure {
			case FailRaise:
				return nil, qerr
			case FailWarn:
				g.logger.Warn("data quality below threshold, proceeding",
					"source", qerr.SourceName,
					"overall_score", qerr.OverallScore,
					"required_score", qerr.RequiredScore,
					"shortfalls", len(qerr.Shortfalls))
			case FailLog:
				g.logger.Info("data quality below threshold, proceeding",
					"source", qerr.SourceName,
					"overall_score", qerr.OverallScore,
					"required_score", qerr.RequiredScore)
			}
		} else if report != nil {
			g.logger.Debug("data quality check passed",
				"source", report.SourceName, "overall_score", report.OverallScore)
		}
		return fn(ctx, args)
	}
}

// Check runs the quality check for a call's arguments without invoking
// anything. It returns the report alongside a *QualityError when the
// source fails its thresholds, and other error kinds for configuration
// or assessment failures.
func (g *Guard) Check(ctx context.Context, args Args) (*quality.AssessmentReport, error) {
	ref, ds, err := g.resolveSource(args)
	if err != nil {
		return nil, err
	}

	identity := ""
	if ref != "" {
		identity = source.Identity(ref)
	}

	if g.cfg.UseCache && identity != "" {
		if cached, ok := g.cache.Load(identity, g.cfg.MaxCacheAge); ok {
			g.logger.Debug("using cached assessment", "source", cached.SourceName, "report_id", cached.ID)
			return cached, g.decide(cached)
		}
	}

	report, err := g.assess(ctx, ref, ds)
	if err != nil {
		return nil, err
	}
	g.persist(ctx, identity, report)
	return report, g.decide(report)
}

// resolveSource locates the data-source argument. It accepts either a
// string reference (resolved through the source registry later) or an
// already loaded *dataset.Dataset.
func (g *Guard) resolveSource(args Args) (string, *dataset.Dataset, error) {
	var (
		raw   any
		found bool
	)
	if g.cfg.SourceParam != "" {
		raw, found = args.Named[g.cfg.SourceParam]
	}
	if !found && g.cfg.SourceIndex >= 0 && g.cfg.SourceIndex < len(args.Positional) {
		raw = args.Positional[g.cfg.SourceIndex]
		found = true
	}
	if !found {
		return "", nil, configErrorf("data-source argument not found (param %q, index %d)",
			g.cfg.SourceParam, g.cfg.SourceIndex)
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return "", nil, configErrorf("data-source argument is empty")
		}
		return v, nil, nil
	case *dataset.Dataset:
		if v == nil {
			return "", nil, configErrorf("data-source argument is a nil dataset")
		}
		return "", v, nil
	default:
		return "", nil, configErrorf("data-source argument has unsupported type %T", raw)
	}
}

func (g *Guard) assess(ctx context.Context, ref string, ds *dataset.Dataset) (*quality.AssessmentReport, error) {
	meta := metadata.Set{}
	if ds == nil {
		limit := g.cfg.SampleLimit
		if limit == 0 {
			limit = assess.DefaultSampleLimit
		}
		loaded, err := g.sources.Load(ctx, ref, limit)
		if err != nil {
			return nil, fmt.Errorf("loading guarded source: %w", err)
		}
		ds = loaded
		if !strings.Contains(ref, "://") {
			meta, err = metadata.Load(ref)
			if err != nil {
				return nil, fmt.Errorf("loading metadata for %s: %w", ref, err)
			}
		}
	}
	return g.engine.Assess(ctx, ds, meta)
}

// persist writes the fresh report to the cache, the report directory,
// and the recorder. Failures are logged and never affect the decision.
func (g *Guard) persist(ctx context.Context, identity string, report *quality.AssessmentReport) {
	if g.cfg.UseCache && identity != "" {
		if err := g.cache.Store(identity, report); err != nil {
			g.logger.Warn("caching assessment report failed", "source", report.SourceName, "error", err)
		}
	}
	if g.cfg.SaveReports {
		if err := g.saveReport(report); err != nil {
			g.logger.Warn("saving assessment report failed", "source", report.SourceName, "error", err)
		}
	}
	if g.recorder != nil {
		if err := g.recorder.Record(ctx, report); err != nil {
			g.logger.Warn("recording assessment failed", "source", report.SourceName, "error", err)
		}
	}
}

func (g *Guard) saveReport(report *quality.AssessmentReport) error {
	if err := os.MkdirAll(g.cfg.ReportDir, 0o750); err != nil {
		return err
	}
	name := fmt.Sprintf("%s-%s.json", sanitizeName(report.SourceName), report.CreatedAt.Format("20060102T150405Z"))
	f, err := os.Create(filepath.Join(g.cfg.ReportDir, name))
	if err != nil {
		return err
	}
	if err := report.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

// decide compares the report against the guard's thresholds. The
// overall score is recombined with template weights when the template
// declares them.
func (g *Guard) decide(report *quality.AssessmentReport) error {
	overall := report.OverallScore
	if g.weights != nil {
		overall = assess.Aggregate(report.Dimensions, g.weights)
	}

	qerr := &QualityError{
		SourceName:    report.SourceName,
		OverallScore:  overall,
		RequiredScore: g.minScore,
	}
	failing := g.minScore > 0 && overall < g.minScore
	for _, d := range quality.Dimensions() {
		min, required := g.dimMins[d]
		if !required {
			continue
		}
		res, assessed := report.Dimensions[d]
		switch {
		case !assessed:
			qerr.Shortfalls = append(qerr.Shortfalls, DimensionShortfall{
				Dimension: d, Required: min,
			})
			failing = true
		case res.Score < min:
			qerr.Shortfalls = append(qerr.Shortfalls, DimensionShortfall{
				Dimension: d, Required: min, Actual: res.Score, Assessed: true,
			})
			failing = true
		}
	}
	if !failing {
		return nil
	}
	return qerr
}

// InvalidateCache removes the cached report for a source reference.
func (g *Guard) InvalidateCache(ref string) error {
	return g.cache.Invalidate(source.Identity(ref))
}

// WithClock overrides the cache clock. Used in tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.cache.WithClock(now)
	return g
}

package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapguard/internal/cli/output"
	"github.com/leapstack-labs/leapguard/internal/history"
	"github.com/leapstack-labs/leapguard/internal/template"
	"github.com/leapstack-labs/leapguard/pkg/guard"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Template        string
	TemplateVersion string
	MinScore        float64
	DimensionMins   []string // name=score pairs
	OnFailure       string
	NoCache         bool
	MaxCacheAge     time.Duration
	Save            bool
	NoHistory       bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check <source>",
		Short: "Run a guard quality check against a data source",
		Long: `Run the same quality check a Guard-wrapped function would run:
assess the source (or reuse a cached assessment), compare it against the
configured thresholds, and report pass or fail. Exits non-zero when the
check fails in raise mode.`,
		Example: `  # Require a minimum overall score
  leapguard check data/orders.csv --min-score 80

  # Check against a template with a per-dimension floor
  leapguard check data/orders.csv --template customer-orders --dimension-min freshness=15

  # Reuse cached assessments for up to an hour
  leapguard check data/orders.csv --min-score 80 --max-cache-age 1h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Template, "template", "T", "", "Template ID or file supplying thresholds")
	cmd.Flags().StringVar(&opts.TemplateVersion, "template-version", "", "Template version (default: latest)")
	cmd.Flags().Float64Var(&opts.MinScore, "min-score", 0, "Required overall score, 0-100")
	cmd.Flags().StringArrayVar(&opts.DimensionMins, "dimension-min", nil, "Required dimension score as name=score (repeatable)")
	cmd.Flags().StringVar(&opts.OnFailure, "on-failure", "raise", "Failure behavior (raise|warn|log)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Always assess, ignoring cached reports")
	cmd.Flags().DurationVar(&opts.MaxCacheAge, "max-cache-age", 0, "Expire cached reports older than this")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save the report JSON to the reports directory")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Skip recording to the history database")

	return cmd
}

func runCheck(cmd *cobra.Command, ref string, opts *CheckOptions) error {
	ctx := cmd.Context()
	cfg := ConfigFrom(ctx)
	r := RendererFrom(ctx)
	logger := newLogger(cmd, cfg)

	mode, ok := guard.ParseFailureMode(opts.OnFailure)
	if !ok {
		return fmt.Errorf("unknown failure mode %q", opts.OnFailure)
	}
	dimMins, err := parseDimensionMins(opts.DimensionMins)
	if err != nil {
		return err
	}

	gcfg := guard.Config{
		SourceParam:       "source",
		SourceIndex:       -1,
		MinScore:          opts.MinScore,
		DimensionMinimums: dimMins,
		OnFailure:         mode,
		UseCache:          !opts.NoCache,
		MaxCacheAge:       opts.MaxCacheAge,
		CacheDir:          cfg.CacheDir,
		SaveReports:       opts.Save,
		ReportDir:         cfg.ReportsDir,
		SampleLimit:       cfg.SampleLimit,
	}
	gopts := guard.Options{Logger: logger}

	switch {
	case strings.HasSuffix(opts.Template, ".yaml"), strings.HasSuffix(opts.Template, ".yml"):
		gcfg.TemplatePath = opts.Template
	case opts.Template != "":
		reg := template.NewRegistry()
		if _, err := reg.LoadDir(cfg.TemplatesDir, nil); err != nil {
			return err
		}
		gcfg.TemplateID = opts.Template
		gcfg.TemplateVersion = opts.TemplateVersion
		gopts.Templates = reg
	}

	if !opts.NoHistory {
		if store := openHistoryForRecording(cfg.HistoryPath, logger); store != nil {
			defer store.Close()
			gopts.Recorder = store
		}
	}

	g, err := guard.New(gcfg, gopts)
	if err != nil {
		return err
	}

	report, err := g.Check(ctx, guard.Args{Named: map[string]any{"source": ref}})
	var qerr *guard.QualityError
	if err != nil && !errors.As(err, &qerr) {
		return err
	}

	if r.JSONMode() {
		if jerr := renderCheckJSON(r, report, qerr); jerr != nil {
			return jerr
		}
	} else {
		renderCheck(r, report, qerr)
	}

	if qerr != nil && mode == guard.FailRaise {
		return fmt.Errorf("quality check failed for %s", qerr.SourceName)
	}
	return nil
}

// parseDimensionMins parses repeated name=score flags.
func parseDimensionMins(pairs []string) (map[quality.Dimension]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	mins := make(map[quality.Dimension]float64, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid dimension minimum %q, expected name=score", pair)
		}
		d, ok := quality.ParseDimension(name)
		if !ok {
			return nil, fmt.Errorf("unknown dimension %q", name)
		}
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score in %q: %w", pair, err)
		}
		mins[d] = score
	}
	return mins, nil
}

// openHistoryForRecording opens the audit store, creating it on first
// use. Failures are logged; recording is never load-bearing.
func openHistoryForRecording(path string, logger *slog.Logger) *history.SQLiteStore {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			logger.Warn("creating history directory failed", "error", err)
			return nil
		}
	}
	store := history.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		logger.Warn("opening history database failed", "error", err)
		return nil
	}
	return store
}

func renderCheck(r *output.Renderer, report *quality.AssessmentReport, qerr *guard.QualityError) {
	if report != nil {
		renderReport(r, report)
		r.Println()
	}
	if qerr == nil {
		r.Println("Check:     PASSED")
		return
	}
	r.Println("Check:     FAILED")
	r.Printf("  %s\n", qerr.Error())
}

type checkPayload struct {
	Report     *quality.AssessmentReport  `json:"report,omitempty"`
	Passed     bool                       `json:"passed"`
	Shortfalls []guard.DimensionShortfall `json:"shortfalls,omitempty"`
}

func renderCheckJSON(r *output.Renderer, report *quality.AssessmentReport, qerr *guard.QualityError) error {
	payload := checkPayload{Report: report, Passed: qerr == nil}
	if qerr != nil {
		payload.Shortfalls = qerr.Shortfalls
	}
	return r.JSON(payload)
}

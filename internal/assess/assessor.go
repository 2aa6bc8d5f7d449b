package assess

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapguard/internal/dataset"
	"github.com/leapstack-labs/leapguard/internal/rules"
	"github.com/leapstack-labs/leapguard/pkg/quality"
	"golang.org/x/sync/errgroup"
)

// AssessDimension evaluates a dimension's rule set over a dataset and
// returns its sub-score, clamped to [0, 20].
//
// Rules within the set share no mutable state, so they run on a bounded
// worker pool; because the score is a commutative sum, parallelism
// changes wall-clock time only, never the result.
func AssessDimension(ctx context.Context, ds *dataset.Dataset, dim quality.Dimension,
	ruleSet []rules.Rule, reg *rules.Registry, explicit bool, workers int) quality.DimensionResult {

	result := quality.DimensionResult{
		Dimension: dim,
		MaxScore:  quality.DimensionMaxScore,
		Explicit:  explicit,
	}

	// An empty dataset has nothing to prove complete.
	if ds.Empty() && dim == quality.DimensionCompleteness {
		result.Findings = append(result.Findings, "dataset is empty; completeness is 0")
		return result
	}

	// An empty dataset is exempt from freshness rules whose timestamp
	// fields are structurally absent.
	if ds.Empty() && dim == quality.DimensionFreshness {
		ruleSet = withoutAbsentColumns(ds, ruleSet)
	}

	if len(ruleSet) == 0 {
		if explicit {
			result.Score = quality.DimensionMaxScore
			result.Findings = append(result.Findings,
				"dimension declared by metadata with no checks to verify")
		} else {
			result.Score = quality.DimensionMaxScore * noRuleDiscoveryCredit
			result.Findings = append(result.Findings,
				fmt.Sprintf("no measurable %s characteristics discovered", dim))
		}
		return result
	}

	outcomes := make([]quality.RuleResult, len(ruleSet))
	if workers <= 1 || len(ruleSet) == 1 {
		for i, r := range ruleSet {
			outcomes[i] = rules.Evaluate(ds, r, reg)
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, r := range ruleSet {
			g.Go(func() error {
				outcomes[i] = rules.Evaluate(ds, r, reg)
				return nil
			})
		}
		// Evaluate never returns an error; the group bounds concurrency.
		_ = g.Wait()
	}

	var earned float64
	for _, outcome := range outcomes {
		earned += outcome.Score
		result.Rules = append(result.Rules, outcome)
		if !outcome.Passed {
			result.Findings = append(result.Findings, outcome.Message)
		}
	}

	credit := 1.0
	if !explicit {
		credit = discoveryCredit[dim]
		result.Findings = append(result.Findings,
			fmt.Sprintf("%s assessed by discovery heuristics; %.0f%% of earned points awarded", dim, credit*100))
	}

	score := earned * credit
	if score < 0 {
		score = 0
	}
	if score > quality.DimensionMaxScore {
		score = quality.DimensionMaxScore
	}
	result.Score = score
	return result
}

// withoutAbsentColumns drops rules whose declared columns do not exist
// in the dataset.
func withoutAbsentColumns(ds *dataset.Dataset, ruleSet []rules.Rule) []rules.Rule {
	out := ruleSet[:0:0]
	for _, r := range ruleSet {
		if absent := missingRuleColumn(ds, r); absent == "" {
			out = append(out, r)
		}
	}
	return out
}

// missingRuleColumn returns the first declared column of a rule that is
// absent from the dataset, or "" when all columns resolve.
func missingRuleColumn(ds *dataset.Dataset, r rules.Rule) string {
	for _, col := range ruleColumns(r) {
		if !ds.HasColumn(col) {
			return col
		}
	}
	return ""
}

// ruleColumns lists the columns a rule declares.
func ruleColumns(r rules.Rule) []string {
	switch c := r.Check.(type) {
	case rules.TypeConsistency:
		return []string{c.Column}
	case rules.RangeValidation:
		return []string{c.Column}
	case rules.FormatConsistency:
		return []string{c.Column}
	case rules.PatternMatch:
		return []string{c.Column}
	case rules.FieldPresent:
		return []string{c.Column}
	case rules.Recency:
		return []string{c.Column}
	case rules.FutureTimestamps:
		return []string{c.Column}
	case rules.UniqueValues:
		return []string{c.Column}
	case rules.AcceptedValues:
		return []string{c.Column}
	case rules.CrossField:
		return []string{c.Left, c.Right}
	case rules.OutlierDetection:
		return []string{c.Column}
	case rules.NonNegative:
		return []string{c.Column}
	default:
		return nil
	}
}

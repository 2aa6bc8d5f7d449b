package quality

// RuleResult is the outcome of evaluating a single rule over a dataset.
type RuleResult struct {
	// RuleID identifies the rule within its dimension, e.g. "type_consistency".
	RuleID string `json:"rule_id"`

	// Dimension is the quality axis the rule contributes to.
	Dimension Dimension `json:"dimension"`

	// Passed reports whether every checked record satisfied the rule.
	Passed bool `json:"passed"`

	// Score is the points this rule contributed: weight × passing fraction.
	Score float64 `json:"score"`

	// Weight is the maximum points the rule could have contributed.
	Weight float64 `json:"weight"`

	// Severity classifies the finding when the rule did not fully pass.
	Severity Severity `json:"severity"`

	// Message describes the outcome in human-readable form.
	Message string `json:"message"`

	// AffectedRecords is the number of records that failed the check.
	AffectedRecords int `json:"affected_records"`
}

// PassingFraction returns the fraction of available points earned, in [0,1].
// A rule with zero weight earns a full fraction when it passed.
func (r RuleResult) PassingFraction() float64 {
	if r.Weight <= 0 {
		if r.Passed {
			return 1
		}
		return 0
	}
	f := r.Score / r.Weight
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// DimensionResult aggregates the rule results for one dimension.
type DimensionResult struct {
	// Dimension is the quality axis this result covers.
	Dimension Dimension `json:"dimension"`

	// Score is the earned sub-score, clamped to [0, MaxScore].
	Score float64 `json:"score"`

	// MaxScore is the maximum achievable sub-score (20 by default).
	MaxScore float64 `json:"max_score"`

	// Explicit reports whether companion metadata declared this
	// dimension's characteristics, as opposed to automated discovery.
	Explicit bool `json:"explicit"`

	// Rules holds the individual rule outcomes, in evaluation order.
	Rules []RuleResult `json:"rules,omitempty"`

	// Findings are human-readable observations collected while assessing.
	Findings []string `json:"findings,omitempty"`
}

// HighestSeverityFailure returns the failed rule result with the highest
// severity, breaking ties by larger point shortfall.
// The second return is false when every rule passed.
func (d DimensionResult) HighestSeverityFailure() (RuleResult, bool) {
	var worst RuleResult
	found := false
	for _, r := range d.Rules {
		if r.Passed {
			continue
		}
		if !found || r.Severity > worst.Severity ||
			(r.Severity == worst.Severity && r.Weight-r.Score > worst.Weight-worst.Score) {
			worst = r
			found = true
		}
	}
	return worst, found
}

// Clone returns a deep copy of the dimension result.
func (d DimensionResult) Clone() DimensionResult {
	out := d
	out.Rules = append([]RuleResult(nil), d.Rules...)
	out.Findings = append([]string(nil), d.Findings...)
	return out
}

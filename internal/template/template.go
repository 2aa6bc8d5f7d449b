// Package template implements quality templates: declarative standards
// specifying the minimum acceptable assessment for a use case. It
// covers parsing and validating template documents, the registry of
// parsed templates, and the gap analysis that compares an assessment
// report against a template.
package template

import (
	"time"

	"github.com/leapstack-labs/leapguard/internal/assess"
	"github.com/leapstack-labs/leapguard/internal/rules"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// Template is a parsed, validated quality standard. Values are owned by
// the TemplateRegistry once registered; callers receive the same
// immutable reference and must not mutate it.
type Template struct {
	// ID identifies the template, e.g. "customer-orders".
	ID string

	// Name is the human-readable template name.
	Name string

	// Version is the template's semantic version.
	Version string

	// Authority names who stands behind the standard. Required for
	// certification eligibility.
	Authority string

	// Description is free-form context.
	Description string

	// OverallMinimum is the required overall score, 0-100.
	OverallMinimum float64

	// DimensionRequirements holds per-dimension minimum scores and
	// optional weights.
	DimensionRequirements map[quality.Dimension]DimensionRequirement

	// MandatoryFields lists columns the dataset must contain.
	MandatoryFields []string

	// Rules are the template's own checks, grouped by dimension, used
	// when assessing a dataset against this template.
	Rules []rules.Rule

	// CustomChecks are boolean expressions over report fields.
	CustomChecks []CustomCheck

	// Certification describes the certificate issued on compliance.
	Certification Certification
}

// DimensionRequirement is the template's demand on one dimension.
type DimensionRequirement struct {
	// MinimumScore is the required sub-score, 0-20.
	MinimumScore float64

	// Weight is the dimension's share of the weighted overall score.
	// Zero when the template does not use weighted scoring.
	Weight float64
}

// CustomCheck is a named boolean expression evaluated over the fields
// of an assessment report.
type CustomCheck struct {
	// Name identifies the check in gap output.
	Name string

	// Expression is a Starlark boolean expression. Available symbols:
	// overall_score, validity_score, completeness_score,
	// freshness_score, consistency_score, plausibility_score,
	// readiness, mode, sampled.
	Expression string
}

// Certification holds the certification metadata of a template.
type Certification struct {
	// Issuer names the certifying party.
	Issuer string

	// ValidFor is how long an issued certification remains valid.
	ValidFor time.Duration
}

// Weighted reports whether the template declares dimension weights.
func (t *Template) Weighted() bool {
	for _, req := range t.DimensionRequirements {
		if req.Weight != 0 {
			return true
		}
	}
	return false
}

// Weights returns the template's dimension weight map, or nil for an
// unweighted template. Loader validation guarantees a returned map
// sums to 1.0.
func (t *Template) Weights() assess.Weights {
	if !t.Weighted() {
		return nil
	}
	w := make(assess.Weights, len(t.DimensionRequirements))
	for dim, req := range t.DimensionRequirements {
		w[dim] = req.Weight
	}
	return w
}

// RulesForDimension returns the template rules belonging to one
// dimension, weights normalized to sum to 20.
func (t *Template) RulesForDimension(d quality.Dimension) []rules.Rule {
	var out []rules.Rule
	for _, r := range t.Rules {
		if r.Dimension == d {
			out = append(out, r)
		}
	}
	return assess.NormalizeWeights(out)
}

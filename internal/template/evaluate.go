package template

import (
	"fmt"
	"sort"
	"time"

	"github.com/leapstack-labs/leapguard/internal/assess"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// GapSeverity classifies the magnitude of a template gap.
type GapSeverity int

// Gap severities, ordered from least to most severe.
const (
	GapMinor GapSeverity = iota
	GapModerate
	GapMajor
)

// String returns the severity name.
func (s GapSeverity) String() string {
	switch s {
	case GapMinor:
		return "minor"
	case GapModerate:
		return "moderate"
	case GapMajor:
		return "major"
	default:
		return "unknown"
	}
}

// Gap is one measured shortfall between an assessment and a template
// requirement.
type Gap struct {
	// Dimension names the requirement context: a dimension name,
	// "overall", "field", or "custom".
	Dimension string `json:"dimension"`

	// Field is the column or check name for field/custom gaps.
	Field string `json:"field,omitempty"`

	// Expected is the required value, rendered as text.
	Expected string `json:"expected"`

	// Actual is the measured value, rendered as text.
	Actual string `json:"actual"`

	// Size is the numeric shortfall: expected−actual for scores, 1 for
	// a boolean or string mismatch.
	Size float64 `json:"gap_size"`

	// Severity is derived from Size as a fraction of the requirement's
	// scale: <10% minor, 10-30% moderate, >30% major.
	Severity GapSeverity `json:"severity"`

	// Remediation is the suggested next step, annotated with the
	// owning dimension's highest-severity failing rule where known.
	Remediation string `json:"remediation,omitempty"`
}

// gapSeverity derives a severity from a gap size and its scale.
func gapSeverity(size, scale float64) GapSeverity {
	if scale <= 0 {
		return GapMajor
	}
	fraction := size / scale
	switch {
	case fraction < 0.10:
		return GapMinor
	case fraction <= 0.30:
		return GapModerate
	default:
		return GapMajor
	}
}

// Evaluation is the outcome of comparing a report against a template.
// It moves through a small state machine: gaps may only be added before
// Finalize, and verdicts may only be read after.
type Evaluation struct {
	template  *Template
	report    *quality.AssessmentReport
	finalized bool

	gaps         []Gap
	overallScore float64
	compliant    bool
	certEligible bool
	evaluatedAt  time.Time
}

// NewEvaluation starts an evaluation of a report against a template.
func NewEvaluation(t *Template, report *quality.AssessmentReport) *Evaluation {
	return &Evaluation{template: t, report: report, overallScore: report.OverallScore}
}

// Template returns the template under evaluation.
func (e *Evaluation) Template() *Template { return e.template }

// OverallScore returns the score the template's requirements were
// checked against: the report's score, or the template-weighted
// recombination for weighted templates.
func (e *Evaluation) OverallScore() float64 { return e.overallScore }

// AddGap records a gap. Returns ErrFinalized after Finalize.
func (e *Evaluation) AddGap(g Gap) error {
	if e.finalized {
		return ErrFinalized
	}
	e.gaps = append(e.gaps, g)
	return nil
}

// Finalize computes the compliance and certification verdicts and
// seals the evaluation. Finalizing twice is a state error.
func (e *Evaluation) Finalize() error {
	if e.finalized {
		return ErrFinalized
	}
	e.finalized = true
	e.evaluatedAt = time.Now().UTC()

	e.compliant = e.overallScore >= e.template.OverallMinimum
	fieldsPresent := true
	for _, g := range e.gaps {
		if g.Severity == GapMajor {
			e.compliant = false
		}
		if g.Dimension == "field" {
			fieldsPresent = false
		}
	}
	e.certEligible = e.compliant && fieldsPresent && e.template.Authority != ""
	return nil
}

// Compliant reports the compliance verdict. ErrNotFinalized before
// Finalize.
func (e *Evaluation) Compliant() (bool, error) {
	if !e.finalized {
		return false, ErrNotFinalized
	}
	return e.compliant, nil
}

// CertificationEligible reports whether the assessment qualifies for
// certification under the template.
func (e *Evaluation) CertificationEligible() (bool, error) {
	if !e.finalized {
		return false, ErrNotFinalized
	}
	return e.certEligible, nil
}

// Gaps returns a copy of the recorded gaps in the order they were added.
func (e *Evaluation) Gaps() []Gap {
	return append([]Gap(nil), e.gaps...)
}

// RemediationPlan returns the gaps ordered by severity, then size.
// ErrNotFinalized before Finalize.
func (e *Evaluation) RemediationPlan() ([]Gap, error) {
	if !e.finalized {
		return nil, ErrNotFinalized
	}
	plan := append([]Gap(nil), e.gaps...)
	sort.SliceStable(plan, func(i, j int) bool {
		if plan[i].Severity != plan[j].Severity {
			return plan[i].Severity > plan[j].Severity
		}
		return plan[i].Size > plan[j].Size
	})
	return plan, nil
}

// EvaluatedAt returns when the evaluation was finalized.
func (e *Evaluation) EvaluatedAt() time.Time { return e.evaluatedAt }

// Evaluate runs the full gap analysis of a report against a template
// and returns a finalized evaluation.
//
// columns lists the assessed dataset's columns, used for mandatory
// field checks; a nil slice means column presence was not demonstrated,
// and every mandatory field gap accordingly.
func Evaluate(t *Template, report *quality.AssessmentReport, columns []string) (*Evaluation, error) {
	e := NewEvaluation(t, report)

	// Weighted templates recombine the dimension scores with the
	// template's weights before comparing against overall_minimum.
	if weights := t.Weights(); weights != nil {
		if err := weights.Validate(); err != nil {
			return nil, err
		}
		e.overallScore = assess.Aggregate(report.Dimensions, weights)
	}

	if e.overallScore < t.OverallMinimum {
		size := t.OverallMinimum - e.overallScore
		gap := Gap{
			Dimension: "overall",
			Expected:  fmt.Sprintf("%.1f", t.OverallMinimum),
			Actual:    fmt.Sprintf("%.1f", e.overallScore),
			Size:      size,
			Severity:  gapSeverity(size, quality.MaxOverallScore),
		}
		gap.Remediation = annotate(report, worstDimension(report),
			fmt.Sprintf("raise overall score by %.1f points", size))
		mustAddGap(e, gap)
	}

	for _, dim := range quality.Dimensions() {
		req, required := t.DimensionRequirements[dim]
		if !required || req.MinimumScore <= 0 {
			continue
		}
		res, assessed := report.Dimensions[dim]
		if !assessed {
			mustAddGap(e, Gap{
				Dimension:   string(dim),
				Expected:    fmt.Sprintf("%.1f", req.MinimumScore),
				Actual:      "not assessed",
				Size:        req.MinimumScore,
				Severity:    gapSeverity(req.MinimumScore, quality.DimensionMaxScore),
				Remediation: fmt.Sprintf("dimension %s was not assessed", dim),
			})
			continue
		}
		if res.Score < req.MinimumScore {
			size := req.MinimumScore - res.Score
			gap := Gap{
				Dimension: string(dim),
				Expected:  fmt.Sprintf("%.1f", req.MinimumScore),
				Actual:    fmt.Sprintf("%.1f", res.Score),
				Size:      size,
				Severity:  gapSeverity(size, quality.DimensionMaxScore),
			}
			gap.Remediation = annotate(report, dim,
				fmt.Sprintf("raise %s score by %.1f points", dim, size))
			mustAddGap(e, gap)
		}
	}

	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	for _, field := range t.MandatoryFields {
		if _, ok := present[field]; ok {
			continue
		}
		mustAddGap(e, Gap{
			Dimension:   "field",
			Field:       field,
			Expected:    "present",
			Actual:      "missing",
			Size:        1,
			Severity:    gapSeverity(1, 1),
			Remediation: fmt.Sprintf("add mandatory field %q to the dataset", field),
		})
	}

	for _, check := range t.CustomChecks {
		passed, err := evalCustomCheck(check, report)
		if err != nil {
			mustAddGap(e, Gap{
				Dimension:   "custom",
				Field:       check.Name,
				Expected:    "true",
				Actual:      "error",
				Size:        1,
				Severity:    gapSeverity(1, 1),
				Remediation: err.Error(),
			})
			continue
		}
		if !passed {
			mustAddGap(e, Gap{
				Dimension:   "custom",
				Field:       check.Name,
				Expected:    "true",
				Actual:      "false",
				Size:        1,
				Severity:    gapSeverity(1, 1),
				Remediation: fmt.Sprintf("satisfy expression %q", check.Expression),
			})
		}
	}

	if err := e.Finalize(); err != nil {
		return nil, err
	}
	return e, nil
}

// mustAddGap adds a gap to a not-yet-finalized evaluation.
// Evaluate owns the evaluation until Finalize, so AddGap cannot fail.
func mustAddGap(e *Evaluation, g Gap) {
	if err := e.AddGap(g); err != nil {
		panic(err)
	}
}

// worstDimension returns the assessed dimension with the lowest score.
func worstDimension(report *quality.AssessmentReport) quality.Dimension {
	var worst quality.Dimension
	lowest := quality.DimensionMaxScore + 1
	for _, dim := range quality.Dimensions() {
		if res, ok := report.Dimensions[dim]; ok && res.Score < lowest {
			worst = dim
			lowest = res.Score
		}
	}
	return worst
}

// annotate appends the dimension's highest-severity failing rule
// message to a remediation hint.
func annotate(report *quality.AssessmentReport, dim quality.Dimension, hint string) string {
	res, ok := report.Dimensions[dim]
	if !ok {
		return hint
	}
	if worst, failed := res.HighestSeverityFailure(); failed {
		return fmt.Sprintf("%s (%s: %s)", hint, worst.RuleID, worst.Message)
	}
	return hint
}

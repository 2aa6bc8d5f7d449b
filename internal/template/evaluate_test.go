package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

func reportWithScores(overall float64, scores map[quality.Dimension]float64) *quality.AssessmentReport {
	dims := make(map[quality.Dimension]quality.DimensionResult, len(scores))
	for dim, score := range scores {
		dims[dim] = quality.DimensionResult{
			Dimension: dim,
			Score:     score,
			MaxScore:  quality.DimensionMaxScore,
			Explicit:  true,
		}
	}
	return &quality.AssessmentReport{
		ID:           "report-1",
		OverallScore: overall,
		Readiness:    quality.DefaultBands().Classify(overall),
		SourceName:   "orders.csv",
		SourceType:   "file",
		Mode:         quality.ModeValidation,
		Dimensions:   dims,
		Version:      quality.ReportVersion,
	}
}

func fullScores(score float64) map[quality.Dimension]float64 {
	out := make(map[quality.Dimension]float64, 5)
	for _, dim := range quality.Dimensions() {
		out[dim] = score
	}
	return out
}

func TestEvaluationStateMachine(t *testing.T) {
	tpl := newTemplate("orders", "1.0.0")
	e := NewEvaluation(tpl, reportWithScores(80, fullScores(16)))

	// Verdicts are unreadable before Finalize.
	_, err := e.Compliant()
	assert.ErrorIs(t, err, ErrNotFinalized)
	_, err = e.CertificationEligible()
	assert.ErrorIs(t, err, ErrNotFinalized)
	_, err = e.RemediationPlan()
	assert.ErrorIs(t, err, ErrNotFinalized)

	require.NoError(t, e.AddGap(Gap{Dimension: "overall", Size: 5}))
	require.NoError(t, e.Finalize())

	// The evaluation is sealed: no further gaps, no second Finalize.
	assert.ErrorIs(t, e.AddGap(Gap{Dimension: "overall"}), ErrFinalized)
	assert.ErrorIs(t, e.Finalize(), ErrFinalized)
	assert.False(t, e.EvaluatedAt().IsZero())

	_, err = e.Compliant()
	require.NoError(t, err)
}

func TestEvaluateCompliant(t *testing.T) {
	tpl := &Template{
		ID:             "orders",
		Version:        "1.0.0",
		Authority:      "data-governance",
		OverallMinimum: 70,
		DimensionRequirements: map[quality.Dimension]DimensionRequirement{
			quality.DimensionCompleteness: {MinimumScore: 14},
		},
		MandatoryFields: []string{"order_id"},
	}
	report := reportWithScores(82, fullScores(16.4))

	e, err := Evaluate(tpl, report, []string{"order_id", "amount"})
	require.NoError(t, err)

	compliant, err := e.Compliant()
	require.NoError(t, err)
	assert.True(t, compliant)

	eligible, err := e.CertificationEligible()
	require.NoError(t, err)
	assert.True(t, eligible)
	assert.Empty(t, e.Gaps())
}

func TestEvaluateOverallShortfall(t *testing.T) {
	tpl := &Template{ID: "orders", Version: "1.0.0", OverallMinimum: 80}
	report := reportWithScores(74, fullScores(14.8))

	e, err := Evaluate(tpl, report, nil)
	require.NoError(t, err)

	compliant, err := e.Compliant()
	require.NoError(t, err)
	assert.False(t, compliant)

	gaps := e.Gaps()
	require.Len(t, gaps, 1)
	assert.Equal(t, "overall", gaps[0].Dimension)
	assert.Equal(t, "80.0", gaps[0].Expected)
	assert.Equal(t, "74.0", gaps[0].Actual)
	assert.InDelta(t, 6.0, gaps[0].Size, 1e-9)
	assert.Equal(t, GapMinor, gaps[0].Severity)
	assert.Contains(t, gaps[0].Remediation, "raise overall score by 6.0 points")
}

func TestEvaluateDimensionShortfall(t *testing.T) {
	tpl := &Template{
		ID: "orders", Version: "1.0.0", OverallMinimum: 50,
		DimensionRequirements: map[quality.Dimension]DimensionRequirement{
			quality.DimensionFreshness: {MinimumScore: 18},
		},
	}
	scores := fullScores(16)
	scores[quality.DimensionFreshness] = 10
	report := reportWithScores(74, scores)

	e, err := Evaluate(tpl, report, nil)
	require.NoError(t, err)

	gaps := e.Gaps()
	require.Len(t, gaps, 1)
	assert.Equal(t, "freshness", gaps[0].Dimension)
	assert.InDelta(t, 8.0, gaps[0].Size, 1e-9)
	// 8 of 20 points is over 30% of the dimension scale.
	assert.Equal(t, GapMajor, gaps[0].Severity)

	compliant, err := e.Compliant()
	require.NoError(t, err)
	assert.False(t, compliant)
}

func TestEvaluateUnassessedDimension(t *testing.T) {
	tpl := &Template{
		ID: "orders", Version: "1.0.0",
		DimensionRequirements: map[quality.Dimension]DimensionRequirement{
			quality.DimensionPlausibility: {MinimumScore: 10},
		},
	}
	report := reportWithScores(60, map[quality.Dimension]float64{
		quality.DimensionValidity: 15,
	})

	e, err := Evaluate(tpl, report, nil)
	require.NoError(t, err)

	gaps := e.Gaps()
	require.Len(t, gaps, 1)
	assert.Equal(t, "plausibility", gaps[0].Dimension)
	assert.Equal(t, "not assessed", gaps[0].Actual)
}

func TestEvaluateMandatoryFields(t *testing.T) {
	tpl := &Template{
		ID: "orders", Version: "1.0.0", Authority: "data-governance",
		OverallMinimum:  50,
		MandatoryFields: []string{"order_id", "amount"},
	}
	report := reportWithScores(90, fullScores(18))

	e, err := Evaluate(tpl, report, []string{"order_id"})
	require.NoError(t, err)

	gaps := e.Gaps()
	require.Len(t, gaps, 1)
	assert.Equal(t, "field", gaps[0].Dimension)
	assert.Equal(t, "amount", gaps[0].Field)
	assert.Equal(t, GapMajor, gaps[0].Severity)

	// A missing mandatory field is a major gap: not compliant, and
	// never certifiable.
	compliant, err := e.Compliant()
	require.NoError(t, err)
	assert.False(t, compliant)

	eligible, err := e.CertificationEligible()
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestEvaluateCustomChecks(t *testing.T) {
	tpl := &Template{
		ID: "orders", Version: "1.0.0", OverallMinimum: 50,
		CustomChecks: []CustomCheck{
			{Name: "score_floor", Expression: "overall_score >= 60 and completeness_score > 10"},
			{Name: "no_sampling", Expression: "not sampled"},
			{Name: "never", Expression: "overall_score > 99"},
		},
	}
	report := reportWithScores(90, fullScores(18))

	e, err := Evaluate(tpl, report, nil)
	require.NoError(t, err)

	gaps := e.Gaps()
	require.Len(t, gaps, 1)
	assert.Equal(t, "custom", gaps[0].Dimension)
	assert.Equal(t, "never", gaps[0].Field)
	assert.Equal(t, "false", gaps[0].Actual)
	assert.Contains(t, gaps[0].Remediation, "overall_score > 99")
}

func TestEvaluateWeightedRecombination(t *testing.T) {
	tpl := &Template{
		ID: "orders", Version: "1.0.0", OverallMinimum: 80,
		DimensionRequirements: map[quality.Dimension]DimensionRequirement{
			quality.DimensionCompleteness: {MinimumScore: 10, Weight: 0.8},
			quality.DimensionFreshness:    {MinimumScore: 0, Weight: 0.2},
		},
	}
	scores := fullScores(4)
	scores[quality.DimensionCompleteness] = 20
	scores[quality.DimensionFreshness] = 10
	// Unweighted sum is far below the minimum; the weighted score
	// 0.8*100 + 0.2*50 = 90 clears it.
	report := reportWithScores(42, scores)

	e, err := Evaluate(tpl, report, nil)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, e.OverallScore(), 1e-9)

	compliant, err := e.Compliant()
	require.NoError(t, err)
	assert.True(t, compliant)
}

func TestRemediationPlanOrdering(t *testing.T) {
	e := NewEvaluation(newTemplate("orders", "1.0.0"), reportWithScores(50, fullScores(10)))
	require.NoError(t, e.AddGap(Gap{Dimension: "overall", Size: 2, Severity: GapMinor}))
	require.NoError(t, e.AddGap(Gap{Dimension: "field", Size: 1, Severity: GapMajor}))
	require.NoError(t, e.AddGap(Gap{Dimension: "validity", Size: 4, Severity: GapModerate}))
	require.NoError(t, e.AddGap(Gap{Dimension: "freshness", Size: 6, Severity: GapModerate}))
	require.NoError(t, e.Finalize())

	plan, err := e.RemediationPlan()
	require.NoError(t, err)
	require.Len(t, plan, 4)
	assert.Equal(t, "field", plan[0].Dimension)
	assert.Equal(t, "freshness", plan[1].Dimension)
	assert.Equal(t, "validity", plan[2].Dimension)
	assert.Equal(t, "overall", plan[3].Dimension)

	// Gaps keeps insertion order.
	assert.Equal(t, "overall", e.Gaps()[0].Dimension)
}

func TestGapSeverityString(t *testing.T) {
	assert.Equal(t, "minor", GapMinor.String())
	assert.Equal(t, "moderate", GapModerate.String())
	assert.Equal(t, "major", GapMajor.String())
}

func TestGapSeverityBoundaries(t *testing.T) {
	assert.Equal(t, GapMinor, gapSeverity(1.9, 20))
	assert.Equal(t, GapModerate, gapSeverity(2, 20))
	assert.Equal(t, GapModerate, gapSeverity(6, 20))
	assert.Equal(t, GapMajor, gapSeverity(6.1, 20))
	assert.Equal(t, GapMajor, gapSeverity(1, 0))
}

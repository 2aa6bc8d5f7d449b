package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassingFraction(t *testing.T) {
	tests := []struct {
		name   string
		result RuleResult
		want   float64
	}{
		{"full credit", RuleResult{Score: 5, Weight: 5, Passed: true}, 1.0},
		{"partial credit", RuleResult{Score: 4, Weight: 5}, 0.8},
		{"no credit", RuleResult{Score: 0, Weight: 5}, 0.0},
		{"zero weight passed", RuleResult{Weight: 0, Passed: true}, 1.0},
		{"zero weight failed", RuleResult{Weight: 0}, 0.0},
		{"clamped above", RuleResult{Score: 6, Weight: 5}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.result.PassingFraction(), 1e-9)
		})
	}
}

func TestHighestSeverityFailure(t *testing.T) {
	d := DimensionResult{
		Dimension: DimensionValidity,
		Rules: []RuleResult{
			{RuleID: "a", Passed: true, Score: 5, Weight: 5},
			{RuleID: "b", Passed: false, Score: 3, Weight: 5, Severity: SeverityWarning},
			{RuleID: "c", Passed: false, Score: 0, Weight: 5, Severity: SeverityError},
			{RuleID: "d", Passed: false, Score: 2, Weight: 5, Severity: SeverityError},
		},
	}

	worst, ok := d.HighestSeverityFailure()
	require.True(t, ok)
	// Highest severity wins; ties break toward the larger shortfall.
	assert.Equal(t, "c", worst.RuleID)
}

func TestHighestSeverityFailureAllPassed(t *testing.T) {
	d := DimensionResult{
		Rules: []RuleResult{
			{RuleID: "a", Passed: true},
			{RuleID: "b", Passed: true},
		},
	}
	_, ok := d.HighestSeverityFailure()
	assert.False(t, ok)
}

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, SeverityInfo < SeverityWarning)
	assert.True(t, SeverityWarning < SeverityError)
	assert.True(t, SeverityError < SeverityCritical)
}

func TestSeverityTextRoundtrip(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var got Severity
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, s, got)
	}
}

func TestParseSeverityUnknown(t *testing.T) {
	got, ok := ParseSeverity("catastrophic")
	assert.False(t, ok)
	assert.Equal(t, SeverityWarning, got)
}

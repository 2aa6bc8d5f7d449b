package quality

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *AssessmentReport {
	return &AssessmentReport{
		ID:           "report-1",
		OverallScore: 72.5,
		Readiness:    ReadinessGood,
		SourceName:   "orders.csv",
		SourceType:   "file",
		Mode:         ModeDiscovery,
		Dimensions: map[Dimension]DimensionResult{
			DimensionValidity: {
				Dimension: DimensionValidity,
				Score:     15.0,
				MaxScore:  DimensionMaxScore,
				Rules: []RuleResult{
					{RuleID: "type_consistency", Dimension: DimensionValidity, Passed: true, Score: 10, Weight: 10},
					{RuleID: "format_consistency", Dimension: DimensionValidity, Passed: false, Score: 5, Weight: 10, Severity: SeverityError},
				},
				Findings: []string{"format mismatch in column email"},
			},
			DimensionCompleteness: {
				Dimension: DimensionCompleteness,
				Score:     18.2,
				MaxScore:  DimensionMaxScore,
				Explicit:  true,
			},
		},
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Version:   ReportVersion,
	}
}

func TestReportRoundtrip(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))

	got, err := ReadReport(&buf)
	require.NoError(t, err)

	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.OverallScore, got.OverallScore)
	assert.Equal(t, report.Readiness, got.Readiness)
	assert.Equal(t, report.Mode, got.Mode)
	assert.Len(t, got.Dimensions, 2)

	validity, ok := got.DimensionResult(DimensionValidity)
	require.True(t, ok)
	assert.Equal(t, 15.0, validity.Score)
	assert.Len(t, validity.Rules, 2)
}

func TestReadReportVersionMismatch(t *testing.T) {
	report := sampleReport()
	report.Version = "2.0.0"

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))

	_, err := ReadReport(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible report version")
}

func TestReadReportMalformed(t *testing.T) {
	_, err := ReadReport(strings.NewReader("{not json"))
	require.Error(t, err)
}

func TestCompatibleReportVersion(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", true},
		{"1.9.3", true},
		{"2.0.0", false},
		{"0.9.0", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompatibleReportVersion(tt.version), "version %q", tt.version)
	}
}

func TestReportCloneIsIndependent(t *testing.T) {
	report := sampleReport()
	clone := report.Clone()

	res := clone.Dimensions[DimensionValidity]
	res.Score = 1.0
	res.Rules[0].Passed = false
	res.Findings[0] = "mutated"
	clone.Dimensions[DimensionValidity] = res

	orig := report.Dimensions[DimensionValidity]
	assert.Equal(t, 15.0, orig.Score)
	assert.True(t, orig.Rules[0].Passed)
	assert.Equal(t, "format mismatch in column email", orig.Findings[0])
}

func TestDimensionScore(t *testing.T) {
	report := sampleReport()

	score, ok := report.DimensionScore(DimensionCompleteness)
	require.True(t, ok)
	assert.Equal(t, 18.2, score)

	_, ok = report.DimensionScore(DimensionFreshness)
	assert.False(t, ok)
}

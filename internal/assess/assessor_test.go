package assess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapguard/internal/dataset"
	"github.com/leapstack-labs/leapguard/internal/rules"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

func newDataset(columns []string, rows [][]any) *dataset.Dataset {
	cols := make([]dataset.Column, len(columns))
	for i, name := range columns {
		cols[i] = dataset.Column{Name: name, Position: i}
	}
	return &dataset.Dataset{
		Name:       "test",
		SourceType: "file",
		Columns:    cols,
		Rows:       rows,
		TotalRows:  int64(len(rows)),
	}
}

func passingRules(weights ...float64) []rules.Rule {
	out := make([]rules.Rule, len(weights))
	for i, w := range weights {
		out[i] = rules.Rule{
			ID:        "id_present",
			Dimension: quality.DimensionCompleteness,
			Weight:    w,
			Check:     rules.FieldPresent{Column: "id"},
		}
	}
	return out
}

func TestAssessDimensionExplicitFullCredit(t *testing.T) {
	ds := newDataset([]string{"id"}, [][]any{{"a"}, {"b"}})
	ruleSet := passingRules(12, 8)

	res := AssessDimension(context.Background(), ds, quality.DimensionCompleteness, ruleSet, nil, true, 1)
	assert.Equal(t, 20.0, res.Score)
	assert.True(t, res.Explicit)
	assert.Len(t, res.Rules, 2)
	assert.Empty(t, res.Findings)
}

func TestAssessDimensionDiscoveryCredit(t *testing.T) {
	ds := newDataset([]string{"id"}, [][]any{{"a"}, {"b"}})
	ruleSet := passingRules(20)

	res := AssessDimension(context.Background(), ds, quality.DimensionCompleteness, ruleSet, nil, false, 1)
	assert.InDelta(t, 18.0, res.Score, 1e-9) // 20 earned at 90% discovery credit
	assert.False(t, res.Explicit)
	require.NotEmpty(t, res.Findings)
	assert.Contains(t, res.Findings[0], "discovery heuristics")
}

func TestAssessDimensionEmptyDatasetCompleteness(t *testing.T) {
	ds := newDataset([]string{"id"}, nil)

	res := AssessDimension(context.Background(), ds, quality.DimensionCompleteness, passingRules(20), nil, true, 1)
	assert.Zero(t, res.Score)
	require.Len(t, res.Findings, 1)
	assert.Contains(t, res.Findings[0], "dataset is empty")
}

func TestAssessDimensionEmptyDatasetFreshnessExemption(t *testing.T) {
	ds := newDataset([]string{"id"}, nil)
	ruleSet := []rules.Rule{{
		ID:        "fresh",
		Dimension: quality.DimensionFreshness,
		Weight:    20,
		Check:     rules.FutureTimestamps{Column: "updated_at"},
	}}

	// The timestamp column is structurally absent, so the rule is dropped
	// and the declared dimension passes vacuously.
	res := AssessDimension(context.Background(), ds, quality.DimensionFreshness, ruleSet, nil, true, 1)
	assert.Equal(t, 20.0, res.Score)
}

func TestAssessDimensionNoRules(t *testing.T) {
	ds := newDataset([]string{"id"}, [][]any{{"a"}})

	explicit := AssessDimension(context.Background(), ds, quality.DimensionFreshness, nil, nil, true, 1)
	assert.Equal(t, 20.0, explicit.Score)

	discovered := AssessDimension(context.Background(), ds, quality.DimensionFreshness, nil, nil, false, 1)
	assert.Equal(t, 10.0, discovered.Score)
	require.NotEmpty(t, discovered.Findings)
	assert.Contains(t, discovered.Findings[0], "no measurable")
}

func TestAssessDimensionClampsToMax(t *testing.T) {
	ds := newDataset([]string{"id"}, [][]any{{"a"}})

	res := AssessDimension(context.Background(), ds, quality.DimensionCompleteness, passingRules(15, 15), nil, true, 1)
	assert.Equal(t, 20.0, res.Score)
}

func TestAssessDimensionFailingRuleRecordsFinding(t *testing.T) {
	ds := newDataset([]string{"id"}, [][]any{{"a"}, {nil}})

	res := AssessDimension(context.Background(), ds, quality.DimensionCompleteness, passingRules(20), nil, true, 1)
	assert.InDelta(t, 10.0, res.Score, 1e-9)
	require.Len(t, res.Findings, 1)
	assert.Contains(t, res.Findings[0], "missing value")
}

func TestAssessDimensionParallelDeterminism(t *testing.T) {
	rows := make([][]any, 100)
	for i := range rows {
		rows[i] = []any{float64(i), float64(i * 2)}
	}
	ds := newDataset([]string{"a", "b"}, rows)
	ruleSet := []rules.Rule{
		{ID: "a_range", Dimension: quality.DimensionValidity, Weight: 5, Check: rules.RangeValidation{Column: "a"}},
		{ID: "a_type", Dimension: quality.DimensionValidity, Weight: 5, Check: rules.TypeConsistency{Column: "a"}},
		{ID: "b_type", Dimension: quality.DimensionValidity, Weight: 5, Check: rules.TypeConsistency{Column: "b"}},
		{ID: "a_nonneg", Dimension: quality.DimensionValidity, Weight: 5, Check: rules.NonNegative{Column: "a"}},
	}

	serial := AssessDimension(context.Background(), ds, quality.DimensionValidity, ruleSet, nil, true, 1)
	parallel := AssessDimension(context.Background(), ds, quality.DimensionValidity, ruleSet, nil, true, 4)
	assert.Equal(t, serial.Score, parallel.Score)
	assert.Equal(t, len(serial.Rules), len(parallel.Rules))
}

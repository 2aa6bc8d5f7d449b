package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

const validTemplateYAML = `
template:
  id: customer-orders
  name: Customer Orders Standard
  version: 1.2.0
  authority: data-governance
  description: Quality bar for order exports.
requirements:
  overall_minimum: 75
  dimension_requirements:
    completeness:
      minimum_score: 16
    validity:
      minimum_score: 14
  mandatory_fields:
    - order_id
    - amount
  rules:
    - type: field_present
      weight: 10
      column: order_id
    - type: recency
      weight: 10
      column: updated_at
      max_age: 48h
  custom:
    - name: no_sampling
      expression: not sampled
  certification:
    issuer: data-governance
    valid_duration: 2160h
`

func TestParseValidTemplate(t *testing.T) {
	tpl, err := Parse([]byte(validTemplateYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, "customer-orders", tpl.ID)
	assert.Equal(t, "Customer Orders Standard", tpl.Name)
	assert.Equal(t, "1.2.0", tpl.Version)
	assert.Equal(t, "data-governance", tpl.Authority)
	assert.Equal(t, 75.0, tpl.OverallMinimum)
	assert.Equal(t, []string{"order_id", "amount"}, tpl.MandatoryFields)
	assert.Len(t, tpl.Rules, 2)
	require.Len(t, tpl.CustomChecks, 1)
	assert.Equal(t, "no_sampling", tpl.CustomChecks[0].Name)
	assert.Equal(t, 2160*time.Hour, tpl.Certification.ValidFor)

	req, ok := tpl.DimensionRequirements[quality.DimensionCompleteness]
	require.True(t, ok)
	assert.Equal(t, 16.0, req.MinimumScore)
	assert.False(t, tpl.Weighted())
	assert.Nil(t, tpl.Weights())
}

func TestParseWeightedTemplate(t *testing.T) {
	tpl, err := Parse([]byte(`
template:
  id: weighted
  version: 1.0.0
requirements:
  overall_minimum: 70
  dimension_requirements:
    completeness:
      minimum_score: 10
      weight: 0.6
    validity:
      minimum_score: 10
      weight: 0.4
`), nil)
	require.NoError(t, err)
	assert.True(t, tpl.Weighted())

	weights := tpl.Weights()
	require.NotNil(t, weights)
	assert.InDelta(t, 0.6, weights[quality.DimensionCompleteness], 1e-9)
	require.NoError(t, weights.Validate())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "missing id",
			yaml:    "template:\n  version: 1.0.0\n",
			wantMsg: "missing required field: template.id",
		},
		{
			name:    "missing version",
			yaml:    "template:\n  id: x\n",
			wantMsg: "missing required field: template.version",
		},
		{
			name:    "bad version",
			yaml:    "template:\n  id: x\n  version: v1.0\n",
			wantMsg: "invalid version",
		},
		{
			name: "overall minimum out of range",
			yaml: `
template:
  id: x
  version: 1.0.0
requirements:
  overall_minimum: 120
`,
			wantMsg: "outside [0,100]",
		},
		{
			name: "unknown dimension",
			yaml: `
template:
  id: x
  version: 1.0.0
requirements:
  dimension_requirements:
    vibes:
      minimum_score: 10
`,
			wantMsg: "unknown dimension",
		},
		{
			name: "dimension minimum out of range",
			yaml: `
template:
  id: x
  version: 1.0.0
requirements:
  dimension_requirements:
    completeness:
      minimum_score: 25
`,
			wantMsg: "outside [0,20]",
		},
		{
			name: "weights do not sum to one",
			yaml: `
template:
  id: x
  version: 1.0.0
requirements:
  dimension_requirements:
    completeness:
      minimum_score: 10
      weight: 0.5
    validity:
      minimum_score: 10
      weight: 0.4
`,
			wantMsg: "sum to 0.900000",
		},
		{
			name: "mixed weighted and unweighted",
			yaml: `
template:
  id: x
  version: 1.0.0
requirements:
  dimension_requirements:
    completeness:
      minimum_score: 10
      weight: 1.0
    validity:
      minimum_score: 10
`,
			wantMsg: "mixes weighted and unweighted",
		},
		{
			name: "unknown rule kind",
			yaml: `
template:
  id: x
  version: 1.0.0
requirements:
  rules:
    - type: telepathy
      weight: 5
`,
			wantMsg: "unknown rule kind",
		},
		{
			name: "custom check without expression",
			yaml: `
template:
  id: x
  version: 1.0.0
requirements:
  custom:
    - name: empty
`,
			wantMsg: "has no expression",
		},
		{
			name: "custom check syntax error",
			yaml: `
template:
  id: x
  version: 1.0.0
requirements:
  custom:
    - name: broken
      expression: "overall_score >"
`,
			wantMsg: "invalid expression",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadRejectsRemoteOrigins(t *testing.T) {
	for _, ref := range []string{
		"http://example.com/template.yaml",
		"https://example.com/template.yaml",
		"s3://bucket/template.yaml",
	} {
		_, err := Load(ref, nil)
		require.Error(t, err)

		var serr *SecurityError
		require.True(t, errors.As(err, &serr), "ref %s", ref)
		assert.Contains(t, err.Error(), "untrusted origin")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)

	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validTemplateYAML), 0o644))

	tpl, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "customer-orders", tpl.ID)
}

func TestRulesForDimension(t *testing.T) {
	tpl, err := Parse([]byte(`
template:
  id: x
  version: 1.0.0
requirements:
  rules:
    - type: field_present
      weight: 1
      column: a
    - type: field_present
      weight: 3
      column: b
    - type: unique_values
      weight: 2
      column: a
`), nil)
	require.NoError(t, err)

	completeness := tpl.RulesForDimension(quality.DimensionCompleteness)
	require.Len(t, completeness, 2)
	assert.InDelta(t, 5.0, completeness[0].Weight, 1e-9)
	assert.InDelta(t, 15.0, completeness[1].Weight, 1e-9)

	consistency := tpl.RulesForDimension(quality.DimensionConsistency)
	require.Len(t, consistency, 1)
	assert.InDelta(t, 20.0, consistency[0].Weight, 1e-9)

	assert.Empty(t, tpl.RulesForDimension(quality.DimensionFreshness))
}

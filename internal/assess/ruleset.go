// Package assess implements dimension assessment and score aggregation:
// it builds per-dimension rule sets from companion metadata or discovery
// heuristics, evaluates them, and combines the five sub-scores into an
// assessment report.
package assess

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapguard/internal/dataset"
	"github.com/leapstack-labs/leapguard/internal/metadata"
	"github.com/leapstack-labs/leapguard/internal/rules"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// discoveryCredit is the fraction of available points a dimension can
// earn when its characteristics were inferred rather than declared.
// Automated inference cannot guarantee downstream visibility, so full
// credit requires companion metadata.
var discoveryCredit = map[quality.Dimension]float64{
	quality.DimensionValidity:     0.80,
	quality.DimensionCompleteness: 0.90,
	quality.DimensionFreshness:    0.60,
	quality.DimensionConsistency:  0.70,
	quality.DimensionPlausibility: 0.70,
}

// noRuleDiscoveryCredit is the score fraction awarded when discovery
// finds nothing measurable for a dimension (e.g. no timestamp columns
// for freshness).
const noRuleDiscoveryCredit = 0.5

// maxDiscoveryColumns caps how many columns discovery generates rules
// for, bounding cost on wide datasets.
const maxDiscoveryColumns = 32

// NormalizeWeights rescales rule weights so they sum to the dimension
// maximum of 20. Rules with no weight left untouched when the set is empty.
func NormalizeWeights(ruleSet []rules.Rule) []rules.Rule {
	var total float64
	for _, r := range ruleSet {
		total += r.Weight
	}
	if total <= 0 {
		return ruleSet
	}
	out := make([]rules.Rule, len(ruleSet))
	for i, r := range ruleSet {
		r.Weight = r.Weight / total * quality.DimensionMaxScore
		out[i] = r
	}
	return out
}

// ExplicitRules builds the rule set for a dimension from its companion
// metadata document. Weights are normalized to sum to 20.
func ExplicitRules(doc *metadata.Document, reg *rules.Registry) ([]rules.Rule, error) {
	specs, err := doc.RuleSpecs()
	if err != nil {
		return nil, err
	}
	ruleSet, err := rules.ParseAll(specs, reg)
	if err != nil {
		return nil, err
	}
	return NormalizeWeights(ruleSet), nil
}

// DiscoveryRules infers a rule set for a dimension from the dataset's
// column profiles. The outlier threshold applies to z-score detection.
func DiscoveryRules(ds *dataset.Dataset, dim quality.Dimension, outlierThreshold float64) []rules.Rule {
	profiles := profileColumns(ds)

	var out []rules.Rule
	switch dim {
	case quality.DimensionValidity:
		for _, cp := range profiles {
			kind, _ := cp.profile.DominantKind()
			if kind == dataset.KindNull || cp.profile.NonNull() == 0 {
				continue
			}
			out = append(out, rules.Rule{
				ID:        "type_consistency:" + cp.name,
				Dimension: dim,
				Weight:    1,
				Check:     rules.TypeConsistency{Column: cp.name, Expect: kind.String()},
			})
			if format, fraction := cp.profile.DominantFormat(); format != "" && fraction >= 0.8 {
				out = append(out, rules.Rule{
					ID:        fmt.Sprintf("format_consistency:%s:%s", cp.name, format),
					Dimension: dim,
					Weight:    1,
					Check:     rules.FormatConsistency{Column: cp.name, Format: format},
				})
			}
		}

	case quality.DimensionCompleteness:
		for _, cp := range profiles {
			out = append(out, rules.Rule{
				ID:        "field_present:" + cp.name,
				Dimension: dim,
				Weight:    1,
				Check:     rules.FieldPresent{Column: cp.name},
			})
		}

	case quality.DimensionFreshness:
		for _, cp := range profiles {
			if !timestampLike(cp) {
				continue
			}
			out = append(out, rules.Rule{
				ID:        "future_timestamps:" + cp.name,
				Dimension: dim,
				Weight:    1,
				Check:     rules.FutureTimestamps{Column: cp.name},
			})
		}

	case quality.DimensionConsistency:
		for _, cp := range profiles {
			if keyLike(cp.name) {
				out = append(out, rules.Rule{
					ID:        "unique_values:" + cp.name,
					Dimension: dim,
					Weight:    1,
					Check:     rules.UniqueValues{Column: cp.name},
				})
			}
		}
		if ds.HasColumn("created_at") && ds.HasColumn("updated_at") {
			out = append(out, rules.Rule{
				ID:        "cross_field:created_at<=updated_at",
				Dimension: dim,
				Weight:    1,
				Check:     rules.CrossField{Left: "created_at", Op: "le", Right: "updated_at"},
			})
		}

	case quality.DimensionPlausibility:
		for _, cp := range profiles {
			if len(cp.profile.Numeric) < 4 {
				continue
			}
			out = append(out, rules.Rule{
				ID:        "outlier_detection:" + cp.name,
				Dimension: dim,
				Weight:    1,
				Check:     rules.OutlierDetection{Column: cp.name, Method: "zscore", Threshold: outlierThreshold},
			})
		}
	}

	return NormalizeWeights(out)
}

type columnProfile struct {
	name    string
	profile dataset.Profile
}

func profileColumns(ds *dataset.Dataset) []columnProfile {
	n := len(ds.Columns)
	if n > maxDiscoveryColumns {
		n = maxDiscoveryColumns
	}
	out := make([]columnProfile, 0, n)
	for _, col := range ds.Columns[:n] {
		values, _ := ds.ColumnValues(col.Name)
		out = append(out, columnProfile{name: col.Name, profile: dataset.ProfileColumn(values)})
	}
	return out
}

// timestampLike reports whether a column looks like a timestamp, either
// by inferred kind or by conventional naming.
func timestampLike(cp columnProfile) bool {
	if kind, fraction := cp.profile.DominantKind(); kind == dataset.KindTime && fraction >= 0.5 {
		return true
	}
	lower := strings.ToLower(cp.name)
	if !strings.Contains(lower, "date") && !strings.Contains(lower, "time") &&
		!strings.HasSuffix(lower, "_at") {
		return false
	}
	// Named like a timestamp: require at least some parseable values.
	values := cp.profile
	return values.KindCounts[dataset.KindTime] > 0 || values.KindCounts[dataset.KindString] > 0
}

// keyLike reports whether a column name suggests an identifier.
func keyLike(name string) bool {
	lower := strings.ToLower(name)
	return lower == "id" || lower == "uuid" || strings.HasSuffix(lower, "_id")
}

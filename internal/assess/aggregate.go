package assess

import (
	"math"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// weightEpsilon is the tolerance for weight sums.
const weightEpsilon = 1e-6

// Weights maps dimensions to their share of the overall score.
// A valid weight map covers known dimensions only and sums to 1.0.
type Weights map[quality.Dimension]float64

// Validate checks a weight map before any scoring occurs.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return quality.NewConfigurationError("weight map is empty")
	}
	var sum float64
	for dim, weight := range w {
		if _, ok := quality.ParseDimension(string(dim)); !ok {
			return quality.NewConfigurationError("weight declared for unknown dimension %q", dim)
		}
		if weight < 0 {
			return quality.NewConfigurationError("negative weight %.4f for dimension %s", weight, dim)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightEpsilon {
		return quality.NewConfigurationError("dimension weights sum to %.6f, want 1.0", sum)
	}
	return nil
}

// Aggregate combines dimension results into an overall score.
//
// With nil weights the overall score is the unweighted sum of the five
// 0-20 sub-scores. With weights it is Σ(weight × score/20 × 100); the
// weight map must already be validated.
func Aggregate(results map[quality.Dimension]quality.DimensionResult, weights Weights) float64 {
	if weights == nil {
		var sum float64
		for _, res := range results {
			sum += res.Score
		}
		return sum
	}
	var overall float64
	for dim, weight := range weights {
		res, ok := results[dim]
		if !ok {
			continue
		}
		overall += weight * (res.Score / quality.DimensionMaxScore) * quality.MaxOverallScore
	}
	return overall
}

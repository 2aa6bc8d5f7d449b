// Package quality defines the core value types for data quality
// assessment: dimensions, severities, rule results, dimension results,
// and the assessment report document.
//
// The package imports only the standard library so that embedding
// applications can depend on it without pulling in the engine.
package quality

import "strings"

// Dimension identifies one of the five data-quality axes.
type Dimension string

// The five assessment dimensions. Each is scored 0-20 by default.
const (
	DimensionValidity     Dimension = "validity"
	DimensionCompleteness Dimension = "completeness"
	DimensionFreshness    Dimension = "freshness"
	DimensionConsistency  Dimension = "consistency"
	DimensionPlausibility Dimension = "plausibility"
)

// DimensionMaxScore is the maximum sub-score per dimension.
const DimensionMaxScore = 20.0

// MaxOverallScore is the maximum overall score across all dimensions.
const MaxOverallScore = 100.0

// Dimensions lists all dimensions in canonical order.
// The order is stable so reports and tables render deterministically.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionValidity,
		DimensionCompleteness,
		DimensionFreshness,
		DimensionConsistency,
		DimensionPlausibility,
	}
}

// ParseDimension converts a string to a Dimension.
// Returns the dimension and true if valid, or "" and false otherwise.
func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(strings.ToLower(strings.TrimSpace(s))) {
	case DimensionValidity:
		return DimensionValidity, true
	case DimensionCompleteness:
		return DimensionCompleteness, true
	case DimensionFreshness:
		return DimensionFreshness, true
	case DimensionConsistency:
		return DimensionConsistency, true
	case DimensionPlausibility:
		return DimensionPlausibility, true
	default:
		return "", false
	}
}

// String returns the dimension name.
func (d Dimension) String() string { return string(d) }

// AssessmentMode indicates how an assessment was performed.
type AssessmentMode string

// Assessment modes.
const (
	// ModeDiscovery means quality characteristics were inferred by
	// automated heuristics because no companion metadata declared them.
	ModeDiscovery AssessmentMode = "discovery"

	// ModeValidation means the majority of dimensions were assessed
	// against explicitly declared companion metadata.
	ModeValidation AssessmentMode = "validation"
)

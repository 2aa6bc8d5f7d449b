// Package rules implements the quality checks evaluated during an
// assessment. Rule kinds form a closed, per-dimension tagged variant so
// the configuration format can be validated statically; user-defined
// kinds plug in through a registered-callback table built once at
// process start.
package rules

import (
	"time"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// Rule binds one check to a dimension with a point weight.
// Rule weights within one dimension sum to the dimension maximum (20).
type Rule struct {
	// ID identifies the rule within its dimension.
	ID string

	// Dimension is the quality axis the rule contributes to.
	Dimension quality.Dimension

	// Weight is the maximum points the rule can contribute.
	Weight float64

	// Check is the tagged-variant check to evaluate.
	Check Check
}

// Check is the closed set of built-in check kinds plus the Custom
// extension seam. Implementations live in this package only.
type Check interface {
	// Kind returns the stable configuration name of the check.
	Kind() string
}

// Validity checks.

// TypeConsistency verifies that a column's values share one logical type.
type TypeConsistency struct {
	Column string
	// Expect is the required kind name ("int", "float", "string",
	// "bool", "time"). Empty means the column's dominant kind.
	Expect string
}

// Kind returns the configuration name of the check.
func (TypeConsistency) Kind() string { return "type_consistency" }

// RangeValidation verifies that numeric values fall inside [Min, Max].
// A nil bound is unenforced.
type RangeValidation struct {
	Column string
	Min    *float64
	Max    *float64
}

// Kind returns the configuration name of the check.
func (RangeValidation) Kind() string { return "range_validation" }

// FormatConsistency verifies that string values match a named format
// (email, uuid, url, date).
type FormatConsistency struct {
	Column string
	Format string
}

// Kind returns the configuration name of the check.
func (FormatConsistency) Kind() string { return "format_consistency" }

// PatternMatch verifies that string values match a regular expression.
type PatternMatch struct {
	Column  string
	Pattern string
}

// Kind returns the configuration name of the check.
func (PatternMatch) Kind() string { return "pattern_match" }

// Completeness checks.

// FieldPresent verifies that a column has no missing values.
type FieldPresent struct {
	Column string
}

// Kind returns the configuration name of the check.
func (FieldPresent) Kind() string { return "field_present" }

// PopulationDensity verifies that the overall fraction of present cells
// across all columns meets a threshold in [0,1].
type PopulationDensity struct {
	Threshold float64
}

// Kind returns the configuration name of the check.
func (PopulationDensity) Kind() string { return "population_density" }

// Freshness checks.

// Recency verifies that a timestamp column's newest value is within
// MaxAge of the evaluation time.
type Recency struct {
	Column string
	MaxAge time.Duration
}

// Kind returns the configuration name of the check.
func (Recency) Kind() string { return "recency" }

// FutureTimestamps verifies that no timestamp lies in the future.
type FutureTimestamps struct {
	Column string
}

// Kind returns the configuration name of the check.
func (FutureTimestamps) Kind() string { return "future_timestamps" }

// Consistency checks.

// UniqueValues verifies that a column's present values are distinct.
type UniqueValues struct {
	Column string
}

// Kind returns the configuration name of the check.
func (UniqueValues) Kind() string { return "unique_values" }

// AcceptedValues verifies that a column's values come from a fixed set.
type AcceptedValues struct {
	Column string
	Values []string
}

// Kind returns the configuration name of the check.
func (AcceptedValues) Kind() string { return "accepted_values" }

// CrossField verifies an ordering between two numeric or timestamp
// columns. Op is one of "lt", "le", "gt", "ge", "eq".
type CrossField struct {
	Left  string
	Op    string
	Right string
}

// Kind returns the configuration name of the check.
func (CrossField) Kind() string { return "cross_field" }

// Plausibility checks.

// OutlierDetection flags numeric values that are statistical outliers.
// Method is "zscore" (Threshold in standard deviations, default 3.0) or
// "iqr" (Threshold as the IQR multiplier, default 1.5).
type OutlierDetection struct {
	Column    string
	Method    string
	Threshold float64
}

// Kind returns the configuration name of the check.
func (OutlierDetection) Kind() string { return "outlier_detection" }

// NonNegative verifies that numeric values are not below zero.
type NonNegative struct {
	Column string
}

// Kind returns the configuration name of the check.
func (NonNegative) Kind() string { return "non_negative" }

// Custom is the open-extension seam: evaluation dispatches to a
// callback registered under Name in the rule Registry.
type Custom struct {
	Name   string
	Params map[string]any
}

// Kind returns the configuration name of the check.
func (c Custom) Kind() string { return c.Name }

// builtinKinds maps configuration names to the dimensions they are
// valid for. Used when parsing rule specs.
var builtinKinds = map[string]quality.Dimension{
	"type_consistency":   quality.DimensionValidity,
	"range_validation":   quality.DimensionValidity,
	"format_consistency": quality.DimensionValidity,
	"pattern_match":      quality.DimensionValidity,
	"field_present":      quality.DimensionCompleteness,
	"population_density": quality.DimensionCompleteness,
	"recency":            quality.DimensionFreshness,
	"future_timestamps":  quality.DimensionFreshness,
	"unique_values":      quality.DimensionConsistency,
	"accepted_values":    quality.DimensionConsistency,
	"cross_field":        quality.DimensionConsistency,
	"outlier_detection":  quality.DimensionPlausibility,
	"non_negative":       quality.DimensionPlausibility,
}

// BuiltinKinds returns the configuration names of all built-in check
// kinds mapped to their dimension.
func BuiltinKinds() map[string]quality.Dimension {
	out := make(map[string]quality.Dimension, len(builtinKinds))
	for k, v := range builtinKinds {
		out[k] = v
	}
	return out
}

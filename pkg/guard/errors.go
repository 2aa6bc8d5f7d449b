package guard

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// ConfigurationError reports a guard that cannot operate as declared:
// an unresolvable data-source parameter, an unknown dimension name, an
// invalid failure mode, or a template that cannot be resolved. It is
// always fatal and never downgraded by the failure mode.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("guard configuration: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("guard configuration: %s", e.Msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// DimensionShortfall describes one dimension that missed its required
// score. Assessed is false when the dimension was required but absent
// from the report.
type DimensionShortfall struct {
	Dimension quality.Dimension `json:"dimension"`
	Required  float64           `json:"required"`
	Actual    float64           `json:"actual"`
	Assessed  bool              `json:"assessed"`
}

// QualityError is returned by a raise-mode guard when the data source
// fails its thresholds. It carries enough detail for the caller to
// report exactly what fell short.
type QualityError struct {
	SourceName    string               `json:"source_name"`
	OverallScore  float64              `json:"overall_score"`
	RequiredScore float64              `json:"required_score"`
	Shortfalls    []DimensionShortfall `json:"shortfalls,omitempty"`
}

func (e *QualityError) Error() string {
	var b strings.Builder
	if e.OverallScore < e.RequiredScore {
		fmt.Fprintf(&b, "data quality check failed for %q: overall score %.1f below required %.1f",
			e.SourceName, e.OverallScore, e.RequiredScore)
	} else {
		fmt.Fprintf(&b, "data quality check failed for %q (overall score %.1f)",
			e.SourceName, e.OverallScore)
	}
	for _, s := range e.Shortfalls {
		if !s.Assessed {
			fmt.Fprintf(&b, "; %s not assessed (requires %.1f)", s.Dimension, s.Required)
			continue
		}
		fmt.Fprintf(&b, "; %s %.1f below required %.1f", s.Dimension, s.Actual, s.Required)
	}
	return b.String()
}

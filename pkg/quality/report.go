package quality

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ReportVersion is the document version written into serialized reports.
// Loaders reject reports whose major version differs.
const ReportVersion = "1.0.0"

// AssessmentReport is the immutable outcome of assessing one dataset.
// Components that hand out reports return clones so that callers cannot
// mutate a shared copy.
type AssessmentReport struct {
	// ID uniquely identifies this assessment run.
	ID string `json:"id"`

	// OverallScore is the aggregate score, 0-100.
	OverallScore float64 `json:"overall_score"`

	// Readiness is the band classification of OverallScore.
	Readiness ReadinessLevel `json:"readiness_level"`

	// SourceName names the assessed data source (file path, table, etc.).
	SourceName string `json:"source_name"`

	// SourceType records the provider kind ("file", "postgres", ...).
	SourceType string `json:"source_type"`

	// Mode records whether the assessment ran in discovery or validation mode.
	Mode AssessmentMode `json:"assessment_mode"`

	// Dimensions maps each assessed dimension to its result.
	Dimensions map[Dimension]DimensionResult `json:"dimension_results"`

	// Sampled reports whether the assessment ran over a row sample
	// rather than the full dataset.
	Sampled bool `json:"sampled,omitempty"`

	// CreatedAt is when the assessment completed.
	CreatedAt time.Time `json:"created_at"`

	// Version is the report document version.
	Version string `json:"version"`
}

// DimensionResult returns the result for one dimension.
// The second return is false when the dimension was not assessed.
func (r *AssessmentReport) DimensionResult(d Dimension) (DimensionResult, bool) {
	res, ok := r.Dimensions[d]
	return res, ok
}

// DimensionScore returns the score for one dimension, or 0 and false
// when the dimension was not assessed.
func (r *AssessmentReport) DimensionScore(d Dimension) (float64, bool) {
	res, ok := r.Dimensions[d]
	if !ok {
		return 0, false
	}
	return res.Score, true
}

// Clone returns a deep copy of the report.
func (r *AssessmentReport) Clone() *AssessmentReport {
	out := *r
	out.Dimensions = make(map[Dimension]DimensionResult, len(r.Dimensions))
	for d, res := range r.Dimensions {
		out.Dimensions[d] = res.Clone()
	}
	return &out
}

// WriteJSON serializes the report as indented JSON.
func (r *AssessmentReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// ReadReport deserializes a report from JSON and checks version
// compatibility.
func ReadReport(rd io.Reader) (*AssessmentReport, error) {
	var report AssessmentReport
	if err := json.NewDecoder(rd).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if !CompatibleReportVersion(report.Version) {
		return nil, fmt.Errorf("incompatible report version %q (current %s)", report.Version, ReportVersion)
	}
	return &report, nil
}

// CompatibleReportVersion reports whether a serialized report can be
// consumed by this version of the library. Only the major version must
// match.
func CompatibleReportVersion(v string) bool {
	if v == "" {
		return false
	}
	major := v
	for i := 0; i < len(v); i++ {
		if v[i] == '.' {
			major = v[:i]
			break
		}
	}
	current := ReportVersion
	for i := 0; i < len(current); i++ {
		if current[i] == '.' {
			current = current[:i]
			break
		}
	}
	return major == current
}

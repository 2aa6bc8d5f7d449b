package quality

import "fmt"

// ReadinessLevel is a named classification of an overall score.
type ReadinessLevel string

// Default readiness levels.
const (
	ReadinessCritical         ReadinessLevel = "Critical"
	ReadinessNeedsImprovement ReadinessLevel = "Needs Improvement"
	ReadinessGood             ReadinessLevel = "Good"
	ReadinessExcellent        ReadinessLevel = "Excellent"
)

// Band maps a half-open score interval [Min, Max) to a readiness level.
// The final band of a table is closed at MaxOverallScore.
type Band struct {
	Min   float64
	Max   float64
	Level ReadinessLevel
}

// BandTable is an ordered set of bands covering [0, 100].
type BandTable []Band

// DefaultBands returns the standard readiness classification table.
func DefaultBands() BandTable {
	return BandTable{
		{Min: 0, Max: 40, Level: ReadinessCritical},
		{Min: 40, Max: 70, Level: ReadinessNeedsImprovement},
		{Min: 70, Max: 85, Level: ReadinessGood},
		{Min: 85, Max: MaxOverallScore, Level: ReadinessExcellent},
	}
}

// Validate checks that the bands are contiguous and exhaustive over [0, 100].
func (t BandTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("band table is empty")
	}
	if t[0].Min != 0 {
		return fmt.Errorf("first band starts at %.2f, want 0", t[0].Min)
	}
	for i, b := range t {
		if b.Max <= b.Min {
			return fmt.Errorf("band %q has min %.2f >= max %.2f", b.Level, b.Min, b.Max)
		}
		if b.Level == "" {
			return fmt.Errorf("band %d has no level name", i)
		}
		if i > 0 && b.Min != t[i-1].Max {
			return fmt.Errorf("gap between bands %q and %q (%.2f != %.2f)",
				t[i-1].Level, b.Level, t[i-1].Max, b.Min)
		}
	}
	if last := t[len(t)-1]; last.Max != MaxOverallScore {
		return fmt.Errorf("last band ends at %.2f, want %.0f", last.Max, MaxOverallScore)
	}
	return nil
}

// Classify returns the readiness level for a score. Scores outside [0, 100]
// are clamped to the nearest band.
func (t BandTable) Classify(score float64) ReadinessLevel {
	if len(t) == 0 {
		return ""
	}
	for _, b := range t {
		if score >= b.Min && score < b.Max {
			return b.Level
		}
	}
	if score >= t[len(t)-1].Max {
		return t[len(t)-1].Level
	}
	return t[0].Level
}

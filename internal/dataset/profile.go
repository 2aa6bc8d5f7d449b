package dataset

import (
	"math"
	"sort"
)

// Profile summarizes one column for discovery-mode heuristics.
type Profile struct {
	// Total is the number of values considered, including nulls.
	Total int

	// Nulls is the number of missing values.
	Nulls int

	// KindCounts tallies inferred kinds over non-null values.
	KindCounts map[Kind]int

	// Numeric holds the float64 readings of numerically readable values.
	Numeric []float64

	// FormatCounts tallies detected string formats over string values.
	FormatCounts map[string]int
}

// ProfileColumn builds a Profile over a column's values.
func ProfileColumn(values []any) Profile {
	p := Profile{
		Total:        len(values),
		KindCounts:   make(map[Kind]int),
		FormatCounts: make(map[string]int),
	}
	for _, v := range values {
		if IsNull(v) {
			p.Nulls++
			continue
		}
		p.KindCounts[InferKind(v)]++
		if f, ok := AsFloat(v); ok {
			p.Numeric = append(p.Numeric, f)
		}
		if s, ok := AsString(v); ok {
			if format := DetectFormat(s); format != "" {
				p.FormatCounts[format]++
			}
		}
	}
	return p
}

// NonNull returns the number of present values.
func (p Profile) NonNull() int { return p.Total - p.Nulls }

// NullFraction returns the fraction of missing values, in [0,1].
func (p Profile) NullFraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Nulls) / float64(p.Total)
}

// DominantKind returns the most frequent non-null kind and the fraction
// of non-null values it covers. Returns KindNull with fraction 0 for a
// column with no present values.
func (p Profile) DominantKind() (Kind, float64) {
	if p.NonNull() == 0 {
		return KindNull, 0
	}
	best := KindNull
	bestCount := -1
	for kind, count := range p.KindCounts {
		if count > bestCount || (count == bestCount && kind < best) {
			best = kind
			bestCount = count
		}
	}
	return best, float64(bestCount) / float64(p.NonNull())
}

// DominantFormat returns the most frequent detected string format and
// the fraction of string values it covers.
func (p Profile) DominantFormat() (string, float64) {
	strings := p.KindCounts[KindString]
	if strings == 0 {
		return "", 0
	}
	best := ""
	bestCount := 0
	for format, count := range p.FormatCounts {
		if count > bestCount || (count == bestCount && format < best) {
			best = format
			bestCount = count
		}
	}
	if best == "" {
		return "", 0
	}
	return best, float64(bestCount) / float64(strings)
}

// Mean returns the arithmetic mean of the numeric readings.
func (p Profile) Mean() float64 {
	if len(p.Numeric) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.Numeric {
		sum += v
	}
	return sum / float64(len(p.Numeric))
}

// StdDev returns the population standard deviation of the numeric readings.
func (p Profile) StdDev() float64 {
	n := len(p.Numeric)
	if n == 0 {
		return 0
	}
	mean := p.Mean()
	var sum float64
	for _, v := range p.Numeric {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// Quartiles returns Q1 and Q3 of the numeric readings using linear
// interpolation between closest ranks.
func (p Profile) Quartiles() (q1, q3 float64) {
	n := len(p.Numeric)
	if n == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), p.Numeric...)
	sort.Float64s(sorted)
	return percentile(sorted, 0.25), percentile(sorted, 0.75)
}

// ZScoreOutliers returns the numeric readings more than threshold
// standard deviations from the mean.
func (p Profile) ZScoreOutliers(threshold float64) []float64 {
	sd := p.StdDev()
	if sd == 0 {
		return nil
	}
	mean := p.Mean()
	var out []float64
	for _, v := range p.Numeric {
		if math.Abs(v-mean)/sd > threshold {
			out = append(out, v)
		}
	}
	return out
}

// IQROutliers returns the numeric readings outside
// [Q1 - k*IQR, Q3 + k*IQR], with the conventional k of 1.5.
func (p Profile) IQROutliers(k float64) []float64 {
	if len(p.Numeric) == 0 {
		return nil
	}
	q1, q3 := p.Quartiles()
	iqr := q3 - q1
	lo, hi := q1-k*iqr, q3+k*iqr
	var out []float64
	for _, v := range p.Numeric {
		if v < lo || v > hi {
			out = append(out, v)
		}
	}
	return out
}

func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := q * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

package rules

import (
	"fmt"
	"regexp"
	"time"

	"github.com/leapstack-labs/leapguard/internal/dataset"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// warningFraction is the passing fraction at or above which a partial
// failure is reported as a warning rather than an error.
const warningFraction = 0.9

// Evaluate runs one rule over a dataset and returns its result.
// Evaluation is pure and never panics or returns an error: a missing
// column yields a failing critical result, and any internal error is
// converted into a failing result so one bad rule cannot abort the
// dimension.
func Evaluate(ds *dataset.Dataset, r Rule, reg *Registry) (result quality.RuleResult) {
	defer func() {
		if p := recover(); p != nil {
			verr := &quality.ValidationError{RuleID: r.ID, Msg: fmt.Sprintf("panic during evaluation: %v", p)}
			result = failed(r, quality.SeverityError, ds.RowCount(), verr.Error())
		}
	}()

	switch c := r.Check.(type) {
	case TypeConsistency:
		return evalTypeConsistency(ds, r, c)
	case RangeValidation:
		return evalRange(ds, r, c)
	case FormatConsistency:
		return evalFormat(ds, r, c)
	case PatternMatch:
		return evalPattern(ds, r, c)
	case FieldPresent:
		return evalFieldPresent(ds, r, c)
	case PopulationDensity:
		return evalPopulationDensity(ds, r, c)
	case Recency:
		return evalRecency(ds, r, c)
	case FutureTimestamps:
		return evalFutureTimestamps(ds, r, c)
	case UniqueValues:
		return evalUniqueValues(ds, r, c)
	case AcceptedValues:
		return evalAcceptedValues(ds, r, c)
	case CrossField:
		return evalCrossField(ds, r, c)
	case OutlierDetection:
		return evalOutliers(ds, r, c)
	case NonNegative:
		return evalNonNegative(ds, r, c)
	case Custom:
		return evalCustom(ds, r, c, reg)
	default:
		// Unreachable for specs that passed parsing.
		return failed(r, quality.SeverityError, 0, fmt.Sprintf("unknown check kind %T", r.Check))
	}
}

// fractional builds a result from a passed/checked count pair.
// A check with nothing to verify passes vacuously.
func fractional(r Rule, passed, checked int, failMsg string) quality.RuleResult {
	if checked == 0 {
		return quality.RuleResult{
			RuleID:    r.ID,
			Dimension: r.Dimension,
			Passed:    true,
			Score:     r.Weight,
			Weight:    r.Weight,
			Severity:  quality.SeverityInfo,
			Message:   "no records to check",
		}
	}
	fraction := float64(passed) / float64(checked)
	affected := checked - passed
	if affected == 0 {
		return quality.RuleResult{
			RuleID:    r.ID,
			Dimension: r.Dimension,
			Passed:    true,
			Score:     r.Weight,
			Weight:    r.Weight,
			Severity:  quality.SeverityInfo,
			Message:   fmt.Sprintf("all %d records passed", checked),
		}
	}
	severity := quality.SeverityError
	if fraction >= warningFraction {
		severity = quality.SeverityWarning
	}
	return quality.RuleResult{
		RuleID:          r.ID,
		Dimension:       r.Dimension,
		Passed:          false,
		Score:           r.Weight * fraction,
		Weight:          r.Weight,
		Severity:        severity,
		Message:         fmt.Sprintf("%d of %d records failed: %s", affected, checked, failMsg),
		AffectedRecords: affected,
	}
}

// failed builds a zero-score failing result.
func failed(r Rule, severity quality.Severity, affected int, msg string) quality.RuleResult {
	return quality.RuleResult{
		RuleID:          r.ID,
		Dimension:       r.Dimension,
		Passed:          false,
		Score:           0,
		Weight:          r.Weight,
		Severity:        severity,
		Message:         msg,
		AffectedRecords: affected,
	}
}

// missingColumn builds the failing critical result for a declared
// column that does not exist in the dataset.
func missingColumn(r Rule, column string) quality.RuleResult {
	return failed(r, quality.SeverityCritical, 0,
		fmt.Sprintf("column %q not found in dataset", column))
}

func evalTypeConsistency(ds *dataset.Dataset, r Rule, c TypeConsistency) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	expect := c.Expect
	if expect == "" {
		profile := dataset.ProfileColumn(values)
		kind, _ := profile.DominantKind()
		expect = kind.String()
	}
	passed, checked := 0, 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		checked++
		if dataset.InferKind(v).String() == expect {
			passed++
		}
	}
	return fractional(r, passed, checked, fmt.Sprintf("value type differs from %s in column %q", expect, c.Column))
}

func evalRange(ds *dataset.Dataset, r Rule, c RangeValidation) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	passed, checked := 0, 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		f, numeric := dataset.AsFloat(v)
		if !numeric {
			continue
		}
		checked++
		if (c.Min == nil || f >= *c.Min) && (c.Max == nil || f <= *c.Max) {
			passed++
		}
	}
	return fractional(r, passed, checked, fmt.Sprintf("value out of range in column %q", c.Column))
}

func evalFormat(ds *dataset.Dataset, r Rule, c FormatConsistency) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	passed, checked := 0, 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		s, isString := dataset.AsString(v)
		if !isString {
			continue
		}
		checked++
		if dataset.MatchesFormat(s, c.Format) {
			passed++
		}
	}
	return fractional(r, passed, checked, fmt.Sprintf("value does not match %s format in column %q", c.Format, c.Column))
}

func evalPattern(ds *dataset.Dataset, r Rule, c PatternMatch) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		verr := &quality.ValidationError{RuleID: r.ID, Msg: "invalid pattern", Err: err}
		return failed(r, quality.SeverityError, 0, verr.Error())
	}
	passed, checked := 0, 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		s, isString := dataset.AsString(v)
		if !isString {
			continue
		}
		checked++
		if re.MatchString(s) {
			passed++
		}
	}
	return fractional(r, passed, checked, fmt.Sprintf("value does not match pattern %q in column %q", c.Pattern, c.Column))
}

func evalFieldPresent(ds *dataset.Dataset, r Rule, c FieldPresent) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	passed := 0
	for _, v := range values {
		if !dataset.IsNull(v) {
			passed++
		}
	}
	return fractional(r, passed, len(values), fmt.Sprintf("missing value in required column %q", c.Column))
}

func evalPopulationDensity(ds *dataset.Dataset, r Rule, c PopulationDensity) quality.RuleResult {
	if len(ds.Columns) == 0 {
		return fractional(r, 0, 0, "")
	}
	present, total := 0, 0
	for _, row := range ds.Rows {
		for _, v := range row {
			total++
			if !dataset.IsNull(v) {
				present++
			}
		}
	}
	if total == 0 {
		return fractional(r, 0, 0, "")
	}
	density := float64(present) / float64(total)
	if density >= c.Threshold {
		return fractional(r, total, total, "")
	}
	result := failed(r, quality.SeverityError, total-present,
		fmt.Sprintf("population density %.1f%% below threshold %.1f%%", density*100, c.Threshold*100))
	// Partial credit proportional to achieved density.
	result.Score = r.Weight * density
	if density >= warningFraction*c.Threshold {
		result.Severity = quality.SeverityWarning
	}
	return result
}

func evalRecency(ds *dataset.Dataset, r Rule, c Recency) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	var newest time.Time
	checked := 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		ts, isTime := dataset.AsTime(v)
		if !isTime {
			continue
		}
		checked++
		if ts.After(newest) {
			newest = ts
		}
	}
	if checked == 0 {
		return fractional(r, 0, 0, "")
	}
	age := time.Since(newest)
	if age <= c.MaxAge {
		return quality.RuleResult{
			RuleID:    r.ID,
			Dimension: r.Dimension,
			Passed:    true,
			Score:     r.Weight,
			Weight:    r.Weight,
			Severity:  quality.SeverityInfo,
			Message:   fmt.Sprintf("newest record in %q is %s old", c.Column, age.Round(time.Minute)),
		}
	}
	return failed(r, quality.SeverityError, checked,
		fmt.Sprintf("newest record in %q is %s old, exceeds maximum age %s",
			c.Column, age.Round(time.Minute), c.MaxAge))
}

func evalFutureTimestamps(ds *dataset.Dataset, r Rule, c FutureTimestamps) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	now := time.Now()
	passed, checked := 0, 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		ts, isTime := dataset.AsTime(v)
		if !isTime {
			continue
		}
		checked++
		if !ts.After(now) {
			passed++
		}
	}
	return fractional(r, passed, checked, fmt.Sprintf("timestamp in the future in column %q", c.Column))
}

func evalUniqueValues(ds *dataset.Dataset, r Rule, c UniqueValues) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	seen := make(map[string]int)
	passed, checked := 0, 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		checked++
		key := fmt.Sprint(v)
		seen[key]++
		if seen[key] == 1 {
			passed++
		}
	}
	return fractional(r, passed, checked, fmt.Sprintf("duplicate value in column %q", c.Column))
}

func evalAcceptedValues(ds *dataset.Dataset, r Rule, c AcceptedValues) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	allowed := make(map[string]struct{}, len(c.Values))
	for _, v := range c.Values {
		allowed[v] = struct{}{}
	}
	passed, checked := 0, 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		checked++
		if _, ok := allowed[fmt.Sprint(v)]; ok {
			passed++
		}
	}
	return fractional(r, passed, checked, fmt.Sprintf("value outside accepted set in column %q", c.Column))
}

func evalCrossField(ds *dataset.Dataset, r Rule, c CrossField) quality.RuleResult {
	leftIdx, ok := ds.ColumnIndex(c.Left)
	if !ok {
		return missingColumn(r, c.Left)
	}
	rightIdx, ok := ds.ColumnIndex(c.Right)
	if !ok {
		return missingColumn(r, c.Right)
	}
	passed, checked := 0, 0
	for _, row := range ds.Rows {
		if leftIdx >= len(row) || rightIdx >= len(row) {
			continue
		}
		lv, rv := row[leftIdx], row[rightIdx]
		if dataset.IsNull(lv) || dataset.IsNull(rv) {
			continue
		}
		cmp, comparable := compareValues(lv, rv)
		if !comparable {
			continue
		}
		checked++
		if opHolds(c.Op, cmp) {
			passed++
		}
	}
	return fractional(r, passed, checked,
		fmt.Sprintf("%q %s %q violated", c.Left, c.Op, c.Right))
}

// compareValues compares two values numerically or as timestamps.
// Returns -1, 0, or 1 and whether the pair was comparable.
func compareValues(a, b any) (int, bool) {
	if af, ok := dataset.AsFloat(a); ok {
		if bf, ok := dataset.AsFloat(b); ok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if at, ok := dataset.AsTime(a); ok {
		if bt, ok := dataset.AsTime(b); ok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return 0, false
}

func opHolds(op string, cmp int) bool {
	switch op {
	case "lt":
		return cmp < 0
	case "le":
		return cmp <= 0
	case "gt":
		return cmp > 0
	case "ge":
		return cmp >= 0
	case "eq":
		return cmp == 0
	default:
		return false
	}
}

func evalOutliers(ds *dataset.Dataset, r Rule, c OutlierDetection) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	profile := dataset.ProfileColumn(values)
	checked := len(profile.Numeric)
	if checked == 0 {
		return fractional(r, 0, 0, "")
	}
	var outliers []float64
	switch c.Method {
	case "iqr":
		threshold := c.Threshold
		if threshold <= 0 {
			threshold = 1.5
		}
		outliers = profile.IQROutliers(threshold)
	default: // zscore
		threshold := c.Threshold
		if threshold <= 0 {
			threshold = 3.0
		}
		outliers = profile.ZScoreOutliers(threshold)
	}
	return fractional(r, checked-len(outliers), checked,
		fmt.Sprintf("statistical outlier in column %q", c.Column))
}

func evalNonNegative(ds *dataset.Dataset, r Rule, c NonNegative) quality.RuleResult {
	values, ok := ds.ColumnValues(c.Column)
	if !ok {
		return missingColumn(r, c.Column)
	}
	passed, checked := 0, 0
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		f, numeric := dataset.AsFloat(v)
		if !numeric {
			continue
		}
		checked++
		if f >= 0 {
			passed++
		}
	}
	return fractional(r, passed, checked, fmt.Sprintf("negative value in column %q", c.Column))
}

func evalCustom(ds *dataset.Dataset, r Rule, c Custom, reg *Registry) quality.RuleResult {
	fn, ok := reg.Lookup(c.Name)
	if !ok {
		// Parsing validates kinds, so this only happens when a rule set
		// built for one registry is evaluated against another.
		return failed(r, quality.SeverityCritical, 0,
			fmt.Sprintf("custom rule kind %q is not registered", c.Name))
	}
	fraction, affected, detail, err := fn(ds, c.Params)
	if err != nil {
		verr := &quality.ValidationError{RuleID: r.ID, Msg: "custom check failed", Err: err}
		return failed(r, quality.SeverityError, affected, verr.Error())
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if detail == "" {
		detail = fmt.Sprintf("custom check %q", c.Name)
	}
	if fraction >= 1 {
		return quality.RuleResult{
			RuleID:    r.ID,
			Dimension: r.Dimension,
			Passed:    true,
			Score:     r.Weight,
			Weight:    r.Weight,
			Severity:  quality.SeverityInfo,
			Message:   detail,
		}
	}
	severity := quality.SeverityError
	if fraction >= warningFraction {
		severity = quality.SeverityWarning
	}
	return quality.RuleResult{
		RuleID:          r.ID,
		Dimension:       r.Dimension,
		Passed:          false,
		Score:           r.Weight * fraction,
		Weight:          r.Weight,
		Severity:        severity,
		Message:         detail,
		AffectedRecords: affected,
	}
}

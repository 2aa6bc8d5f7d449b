package template

import (
	"fmt"

	"github.com/leapstack-labs/leapguard/pkg/quality"
	"go.starlark.net/starlark"
)

// reportGlobals builds the Starlark environment for custom checks from
// an assessment report.
func reportGlobals(report *quality.AssessmentReport) starlark.StringDict {
	globals := starlark.StringDict{
		"overall_score": starlark.Float(report.OverallScore),
		"readiness":     starlark.String(report.Readiness),
		"mode":          starlark.String(report.Mode),
		"sampled":       starlark.Bool(report.Sampled),
	}
	for _, dim := range quality.Dimensions() {
		score := 0.0
		if res, ok := report.Dimensions[dim]; ok {
			score = res.Score
		}
		globals[string(dim)+"_score"] = starlark.Float(score)
	}
	return globals
}

// evalCustomCheck evaluates a template custom check against a report.
// Returns whether the check passed.
func evalCustomCheck(check CustomCheck, report *quality.AssessmentReport) (bool, error) {
	thread := &starlark.Thread{
		Name: "custom:" + check.Name,
		Print: func(_ *starlark.Thread, _ string) {
			// Expressions have no output channel.
		},
	}
	value, err := starlark.Eval(thread, check.Name, check.Expression, reportGlobals(report)) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return false, fmt.Errorf("custom check %q: %w", check.Name, err)
	}
	return bool(value.Truth()), nil
}

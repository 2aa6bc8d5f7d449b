// Package guard provides the call-interception API: a wrapper that
// assesses a function's data-source argument before the call and
// proceeds, warns, or blocks based on configured quality thresholds.
//
// The mechanism is synchronous call interception, not hidden magic: a
// Guard takes a function value and a quality configuration and returns
// a new callable.
package guard

import (
	"strings"
	"time"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// FailureMode selects what happens when a data source fails its
// quality thresholds.
type FailureMode string

// Failure modes.
const (
	// FailRaise blocks the call: the wrapped function never executes.
	FailRaise FailureMode = "raise"
	// FailWarn executes the call after emitting a warning.
	FailWarn FailureMode = "warn"
	// FailLog executes the call after a log entry. It differs from
	// FailWarn only in observability output.
	FailLog FailureMode = "log"
)

// ParseFailureMode converts a string to a FailureMode.
func ParseFailureMode(s string) (FailureMode, bool) {
	switch FailureMode(strings.ToLower(s)) {
	case FailRaise:
		return FailRaise, true
	case FailWarn:
		return FailWarn, true
	case FailLog:
		return FailLog, true
	default:
		return "", false
	}
}

// Config declares how a Guard locates the data source and what quality
// it demands.
type Config struct {
	// SourceParam names the wrapped function's data-source argument.
	// Matched exactly against the call's named arguments.
	SourceParam string

	// SourceIndex is the positional fallback used when SourceParam is
	// empty or absent from a call. Negative disables positional lookup.
	SourceIndex int

	// TemplatePath loads quality thresholds from a template document.
	TemplatePath string

	// TemplateID and TemplateVersion resolve a template from a
	// registry instead of a path. Version may be empty for latest.
	TemplateID      string
	TemplateVersion string

	// MinScore is the required overall score, 0-100. When zero and a
	// template is configured, the template's overall_minimum applies.
	MinScore float64

	// DimensionMinimums holds per-dimension required scores, 0-20.
	// Merged over the template's dimension requirements.
	DimensionMinimums map[quality.Dimension]float64

	// OnFailure selects the failure behavior. Defaults to FailRaise.
	OnFailure FailureMode

	// UseCache enables reading previously persisted reports.
	UseCache bool

	// MaxCacheAge expires cached reports older than this. Zero means
	// no age limit.
	MaxCacheAge time.Duration

	// CacheDir is where cached reports live. Defaults to
	// ".leapguard/cache".
	CacheDir string

	// SaveReports additionally writes each fresh report to ReportDir.
	SaveReports bool

	// ReportDir is where saved reports go. Defaults to
	// ".leapguard/reports".
	ReportDir string

	// SampleLimit caps rows loaded per guarded assessment. Zero uses
	// the engine default; negative disables sampling.
	SampleLimit int
}

// Default directories.
const (
	DefaultCacheDir  = ".leapguard/cache"
	DefaultReportDir = ".leapguard/reports"
)

// Package config provides configuration management for the leapguard CLI.
//
// Configuration is merged from four layers with increasing precedence:
// built-in defaults, a leapguard.yaml project file, LEAPGUARD_*
// environment variables, and command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	TemplatesDir string  `koanf:"templates_dir"`
	CacheDir     string  `koanf:"cache_dir"`
	ReportsDir   string  `koanf:"reports_dir"`
	HistoryPath  string  `koanf:"history_path"`
	SampleLimit  int     `koanf:"sample_limit"`
	Workers      int     `koanf:"workers"`
	MinScore     float64 `koanf:"min_score"`
	Verbose      bool    `koanf:"verbose"`
	OutputFormat string  `koanf:"output"`
}

// Default configuration values.
const (
	DefaultTemplatesDir = "templates"
	DefaultCacheDir     = ".leapguard/cache"
	DefaultReportsDir   = ".leapguard/reports"
	DefaultHistoryFile  = ".leapguard/history.db"
	DefaultSampleLimit  = 100_000
	DefaultWorkers      = 4
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

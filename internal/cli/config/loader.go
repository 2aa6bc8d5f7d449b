package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search
// for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
)

// configExistsIn checks if a leapguard config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range []string{"leapguard.yaml", "leapguard.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a leapguard
// config file. Returns empty string if not found within
// maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// GetConfigFileUsed returns the path of the config file that was loaded,
// or empty if none was.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config file
// > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// Determine project root: explicit config file's directory, else
	// upward search from CWD, else CWD.
	projectRoot := ""
	if cfgFile != "" {
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}
	if projectRoot == "" {
		if cwd, err := os.Getwd(); err == nil {
			if root := findProjectRootUpward(cwd); root != "" {
				projectRoot = root
			} else {
				projectRoot = cwd
			}
		} else {
			projectRoot = "."
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"templates_dir": DefaultTemplatesDir,
		"cache_dir":     DefaultCacheDir,
		"reports_dir":   DefaultReportsDir,
		"history_path":  DefaultHistoryFile,
		"sample_limit":  DefaultSampleLimit,
		"workers":       DefaultWorkers,
		"verbose":       false,
		"output":        DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		for _, name := range []string{"leapguard.yaml", "leapguard.yml"} {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			configFileUsed = cfgFile
			if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
			}
		}
	}

	// 3. Load environment variables (LEAPGUARD_ prefix)
	// Transform: LEAPGUARD_TEMPLATES_DIR -> templates_dir
	if err := k.Load(env.Provider("LEAPGUARD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LEAPGUARD_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve relative paths against the project root
	cfg.TemplatesDir = resolvePathRelativeTo(cfg.TemplatesDir, projectRoot)
	cfg.CacheDir = resolvePathRelativeTo(cfg.CacheDir, projectRoot)
	cfg.ReportsDir = resolvePathRelativeTo(cfg.ReportsDir, projectRoot)
	cfg.HistoryPath = resolvePathRelativeTo(cfg.HistoryPath, projectRoot)

	return &cfg, nil
}

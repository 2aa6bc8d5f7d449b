package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const initConfigYAML = `# leapguard configuration
templates_dir: templates
cache_dir: .leapguard/cache
reports_dir: .leapguard/reports
history_path: .leapguard/history.db
sample_limit: 100000
workers: 4
output: auto
`

const initExampleTemplate = `template:
  id: example-standard
  name: Example Quality Standard
  version: 1.0.0
  authority: Data Platform Team
  description: >
    Baseline quality standard for tabular sources. Tune the minimums and
    add mandatory fields and rules for your use case.

requirements:
  overall_minimum: 70
  dimension_requirements:
    completeness:
      minimum_score: 14
    validity:
      minimum_score: 12
  mandatory_fields: []
  rules: []
`

const initExampleMetadata = `# Companion metadata for the completeness dimension.
# Rename to <source>.completeness.meta.yaml next to your data file.
dimension: completeness
declared_by: Data Platform Team
rules:
  - id: key-fields-present
    type: field_present
    weight: 1.0
    column: id
  - id: dense-population
    type: population_density
    weight: 1.0
    threshold: 0.95
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapguard project",
		Long: `Initialize a new leapguard project with default directory structure
and configuration.

This creates:
  - leapguard.yaml configuration file
  - templates/ directory with an example quality template
  - an example companion metadata document`,
		Example: `  # Initialize in current directory
  leapguard init

  # Initialize in a new directory
  leapguard init my-project

  # Force overwrite existing config
  leapguard init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := RendererFrom(cmd.Context())

	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "leapguard.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("leapguard.yaml already exists. Use --force to overwrite")
	}

	files := map[string]string{
		configPath: initConfigYAML,
		filepath.Join(dir, "templates", "example-standard.yaml"):  initExampleTemplate,
		filepath.Join(dir, "example.completeness.meta.yaml.tmpl"): initExampleMetadata,
	}
	for path, content := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.Printf("created %s\n", path)
	}

	r.Println()
	r.Println("Project initialized. Next steps:")
	r.Println("  1. leapguard assess <your-data.csv>")
	r.Println("  2. Edit templates/example-standard.yaml for your standard")
	r.Println("  3. leapguard templates verify <your-data.csv> example-standard")
	return nil
}

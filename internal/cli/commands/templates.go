package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapguard/internal/template"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// NewTemplatesCommand creates the templates command group.
func NewTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage quality templates",
		Long: `List, inspect, and verify the quality templates in the templates
directory. Templates declare the minimum acceptable assessment for a
use case: an overall score floor, per-dimension minimums, mandatory
fields, rules, and custom checks.`,
	}

	cmd.AddCommand(newTemplatesListCommand())
	cmd.AddCommand(newTemplatesShowCommand())
	cmd.AddCommand(newTemplatesVerifyCommand())
	return cmd
}

func loadTemplates(cmd *cobra.Command) (*template.Registry, error) {
	cfg := ConfigFrom(cmd.Context())
	reg := template.NewRegistry()
	n, err := reg.LoadDir(cfg.TemplatesDir, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("no templates found in %s", cfg.TemplatesDir)
	}
	return reg, nil
}

func newTemplatesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available quality templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := RendererFrom(cmd.Context())
			reg, err := loadTemplates(cmd)
			if err != nil {
				return err
			}

			templates := reg.List()
			if r.JSONMode() {
				type item struct {
					ID             string  `json:"id"`
					Version        string  `json:"version"`
					Name           string  `json:"name"`
					Authority      string  `json:"authority,omitempty"`
					OverallMinimum float64 `json:"overall_minimum"`
				}
				items := make([]item, 0, len(templates))
				for _, t := range templates {
					items = append(items, item{t.ID, t.Version, t.Name, t.Authority, t.OverallMinimum})
				}
				return r.JSON(items)
			}

			rows := make([][]string, 0, len(templates))
			for _, t := range templates {
				rows = append(rows, []string{
					t.ID, t.Version, t.Name, t.Authority,
					fmt.Sprintf("%.0f", t.OverallMinimum),
				})
			}
			r.Table([]string{"ID", "Version", "Name", "Authority", "Min Score"}, rows)
			return nil
		},
	}
}

func newTemplatesShowCommand() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "show <template-id>",
		Short: "Show a template's requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := RendererFrom(cmd.Context())
			reg, err := loadTemplates(cmd)
			if err != nil {
				return err
			}
			tpl, err := reg.Get(args[0], version)
			if err != nil {
				return err
			}

			r.Printf("Template:  %s@%s\n", tpl.ID, tpl.Version)
			r.Printf("Name:      %s\n", tpl.Name)
			if tpl.Authority != "" {
				r.Printf("Authority: %s\n", tpl.Authority)
			}
			if tpl.Description != "" {
				r.Printf("About:     %s\n", tpl.Description)
			}
			r.Printf("Overall:   >= %.0f\n\n", tpl.OverallMinimum)

			if len(tpl.DimensionRequirements) > 0 {
				rows := make([][]string, 0, len(tpl.DimensionRequirements))
				for _, d := range quality.Dimensions() {
					req, ok := tpl.DimensionRequirements[d]
					if !ok {
						continue
					}
					weight := "-"
					if tpl.Weighted() {
						weight = fmt.Sprintf("%.2f", req.Weight)
					}
					rows = append(rows, []string{string(d), fmt.Sprintf("%.0f", req.MinimumScore), weight})
				}
				r.Table([]string{"Dimension", "Min Score", "Weight"}, rows)
			}

			if len(tpl.MandatoryFields) > 0 {
				r.Printf("\nMandatory fields: %v\n", tpl.MandatoryFields)
			}
			if len(tpl.Rules) > 0 {
				r.Printf("Rules: %d\n", len(tpl.Rules))
			}
			for _, check := range tpl.CustomChecks {
				r.Printf("Custom check %q: %s\n", check.Name, check.Expression)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "template-version", "", "Template version (default: latest)")
	return cmd
}

func newTemplatesVerifyCommand() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "verify <source> <template-id>",
		Short: "Verify a data source against a template",
		Long: `Assess a data source and evaluate the result against a quality
template. Exits non-zero when the source does not comply.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(cmd, args[0], &AssessOptions{
				Template:        args[1],
				TemplateVersion: version,
			})
		},
	}
	cmd.Flags().StringVar(&version, "template-version", "", "Template version (default: latest)")
	return cmd
}

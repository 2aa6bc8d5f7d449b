package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapguard/internal/cli/output"
	"github.com/leapstack-labs/leapguard/internal/template"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// renderReport writes an assessment report as a summary line plus a
// per-dimension table.
func renderReport(r *output.Renderer, report *quality.AssessmentReport) {
	r.Printf("Source:    %s (%s)\n", report.SourceName, report.SourceType)
	r.Printf("Mode:      %s\n", report.Mode)
	if report.Sampled {
		r.Println("Sampled:   yes")
	}
	r.Printf("Overall:   %.1f / %.0f (%s)\n\n", report.OverallScore, quality.MaxOverallScore, report.Readiness)

	rows := make([][]string, 0, len(report.Dimensions))
	for _, d := range quality.Dimensions() {
		res, ok := report.Dimensions[d]
		if !ok {
			continue
		}
		mode := "discovery"
		if res.Explicit {
			mode = "explicit"
		}
		rows = append(rows, []string{
			string(d),
			fmt.Sprintf("%.1f", res.Score),
			fmt.Sprintf("%.0f", res.MaxScore),
			mode,
			fmt.Sprintf("%d", len(res.Rules)),
			fmt.Sprintf("%d", len(res.Findings)),
		})
	}
	r.Table([]string{"Dimension", "Score", "Max", "Mode", "Rules", "Findings"}, rows)

	for _, d := range quality.Dimensions() {
		res, ok := report.Dimensions[d]
		if !ok || len(res.Findings) == 0 {
			continue
		}
		r.Printf("\n%s findings:\n", d)
		for _, finding := range res.Findings {
			r.Printf("  - %s\n", finding)
		}
	}
}

// renderEvaluation writes a template compliance verdict and its gaps.
func renderEvaluation(r *output.Renderer, eval *template.Evaluation) {
	tpl := eval.Template()
	compliant, err := eval.Compliant()
	if err != nil {
		r.Errorf("evaluation not finalized: %v\n", err)
		return
	}
	certEligible, _ := eval.CertificationEligible()

	r.Printf("Template:  %s@%s (%s)\n", tpl.ID, tpl.Version, tpl.Name)
	if compliant {
		r.Println("Verdict:   COMPLIANT")
	} else {
		r.Println("Verdict:   NOT COMPLIANT")
	}
	if certEligible {
		r.Printf("Eligible for certification by %s\n", tpl.Certification.Issuer)
	}

	plan, err := eval.RemediationPlan()
	if err != nil || len(plan) == 0 {
		return
	}

	r.Println()
	rows := make([][]string, 0, len(plan))
	for _, gap := range plan {
		name := gap.Dimension
		if gap.Field != "" {
			name = fmt.Sprintf("%s (%s)", gap.Dimension, gap.Field)
		}
		rows = append(rows, []string{
			name,
			gap.Expected,
			gap.Actual,
			fmt.Sprintf("%.1f", gap.Size),
			gap.Severity.String(),
			gap.Remediation,
		})
	}
	r.Table([]string{"Requirement", "Expected", "Actual", "Gap", "Severity", "Remediation"}, rows)
}

// assessPayload is the JSON shape of an assess command result.
type assessPayload struct {
	Report     *quality.AssessmentReport `json:"report"`
	Compliance *compliancePayload        `json:"compliance,omitempty"`
}

type compliancePayload struct {
	TemplateID            string         `json:"template_id"`
	TemplateVersion       string         `json:"template_version"`
	Compliant             bool           `json:"compliant"`
	CertificationEligible bool           `json:"certification_eligible"`
	Gaps                  []template.Gap `json:"gaps,omitempty"`
}

func renderAssessJSON(r *output.Renderer, report *quality.AssessmentReport, eval *template.Evaluation) error {
	payload := assessPayload{Report: report}
	if eval != nil {
		compliant, err := eval.Compliant()
		if err != nil {
			return err
		}
		certEligible, _ := eval.CertificationEligible()
		plan, _ := eval.RemediationPlan()
		payload.Compliance = &compliancePayload{
			TemplateID:            eval.Template().ID,
			TemplateVersion:       eval.Template().Version,
			Compliant:             compliant,
			CertificationEligible: certEligible,
			Gaps:                  plan,
		}
	}
	return r.JSON(payload)
}

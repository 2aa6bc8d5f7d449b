package template

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapguard/internal/rules"
	"github.com/leapstack-labs/leapguard/pkg/quality"
	"go.starlark.net/syntax"
	"gopkg.in/yaml.v3"
)

// weightEpsilon is the tolerance for the dimension weight sum.
const weightEpsilon = 1e-6

// semverPattern matches the accepted template version form.
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// document mirrors the on-disk YAML structure of a template.
type document struct {
	Template struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Authority   string `yaml:"authority"`
		Description string `yaml:"description"`
	} `yaml:"template"`
	Requirements struct {
		OverallMinimum        float64                   `yaml:"overall_minimum"`
		DimensionRequirements map[string]dimRequirement `yaml:"dimension_requirements"`
		MandatoryFields       []string                  `yaml:"mandatory_fields"`
		Rules                 []map[string]any          `yaml:"rules"`
		Custom                []customCheckDoc          `yaml:"custom"`
		Certification         certificationDoc          `yaml:"certification"`
	} `yaml:"requirements"`
}

type dimRequirement struct {
	MinimumScore float64 `yaml:"minimum_score"`
	Weight       float64 `yaml:"weight"`
}

type customCheckDoc struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

type certificationDoc struct {
	Issuer        string `yaml:"issuer"`
	ValidDuration string `yaml:"valid_duration"`
}

// Load reads, parses, and validates a template document from a local
// path. Remote origins are rejected with a SecurityError.
func Load(path string, reg *rules.Registry) (*Template, error) {
	if remoteRef(path) {
		return nil, &SecurityError{Ref: path}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	tpl, err := Parse(data, reg)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return tpl, nil
}

// remoteRef reports whether a template reference names a remote origin.
func remoteRef(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.Contains(lower, "://")
}

// Parse parses and validates a template document. Structural problems
// surface as ConfigurationError so callers can distinguish a bad
// document from an unreadable one.
func Parse(data []byte, reg *rules.Registry) (*Template, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, quality.WrapConfigurationError(err, "malformed template document")
	}

	if doc.Template.ID == "" {
		return nil, quality.NewConfigurationError("template is missing required field: template.id")
	}
	if doc.Template.Version == "" {
		return nil, quality.NewConfigurationError("template %q is missing required field: template.version", doc.Template.ID)
	}
	if !semverPattern.MatchString(doc.Template.Version) {
		return nil, quality.NewConfigurationError(
			"template %q has invalid version %q, want MAJOR.MINOR.PATCH", doc.Template.ID, doc.Template.Version)
	}
	if doc.Requirements.OverallMinimum < 0 || doc.Requirements.OverallMinimum > quality.MaxOverallScore {
		return nil, quality.NewConfigurationError(
			"template %q has overall_minimum %.2f outside [0,100]", doc.Template.ID, doc.Requirements.OverallMinimum)
	}

	dimReqs, err := parseDimensionRequirements(doc)
	if err != nil {
		return nil, err
	}

	ruleSet, err := parseRules(doc, reg)
	if err != nil {
		return nil, err
	}

	customChecks, err := parseCustomChecks(doc)
	if err != nil {
		return nil, err
	}

	cert := Certification{Issuer: doc.Requirements.Certification.Issuer}
	if raw := doc.Requirements.Certification.ValidDuration; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, quality.WrapConfigurationError(err,
				"template %q has invalid certification valid_duration %q", doc.Template.ID, raw)
		}
		cert.ValidFor = d
	}

	return &Template{
		ID:                    doc.Template.ID,
		Name:                  doc.Template.Name,
		Version:               doc.Template.Version,
		Authority:             doc.Template.Authority,
		Description:           doc.Template.Description,
		OverallMinimum:        doc.Requirements.OverallMinimum,
		DimensionRequirements: dimReqs,
		MandatoryFields:       append([]string(nil), doc.Requirements.MandatoryFields...),
		Rules:                 ruleSet,
		CustomChecks:          customChecks,
		Certification:         cert,
	}, nil
}

func parseDimensionRequirements(doc document) (map[quality.Dimension]DimensionRequirement, error) {
	out := make(map[quality.Dimension]DimensionRequirement, len(doc.Requirements.DimensionRequirements))
	weighted := 0
	var weightSum float64
	for name, req := range doc.Requirements.DimensionRequirements {
		dim, ok := quality.ParseDimension(name)
		if !ok {
			return nil, quality.NewConfigurationError(
				"template %q requires unknown dimension %q", doc.Template.ID, name)
		}
		if req.MinimumScore < 0 || req.MinimumScore > quality.DimensionMaxScore {
			return nil, quality.NewConfigurationError(
				"template %q requires %s minimum_score %.2f outside [0,20]", doc.Template.ID, dim, req.MinimumScore)
		}
		if req.Weight < 0 {
			return nil, quality.NewConfigurationError(
				"template %q has negative weight for dimension %s", doc.Template.ID, dim)
		}
		if req.Weight > 0 {
			weighted++
			weightSum += req.Weight
		}
		out[dim] = DimensionRequirement{MinimumScore: req.MinimumScore, Weight: req.Weight}
	}
	// Weighted scoring is all-or-nothing: either every listed dimension
	// carries a weight and they sum to 1.0, or none does.
	if weighted > 0 {
		if weighted != len(out) {
			return nil, quality.NewConfigurationError(
				"template %q mixes weighted and unweighted dimension requirements", doc.Template.ID)
		}
		if math.Abs(weightSum-1.0) > weightEpsilon {
			return nil, quality.NewConfigurationError(
				"template %q dimension weights sum to %.6f, want 1.0", doc.Template.ID, weightSum)
		}
	}
	return out, nil
}

func parseRules(doc document, reg *rules.Registry) ([]rules.Rule, error) {
	specs := make([]rules.Spec, 0, len(doc.Requirements.Rules))
	for i, raw := range doc.Requirements.Rules {
		var spec rules.Spec
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &spec,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build decoder: %w", err)
		}
		if err := dec.Decode(raw); err != nil {
			return nil, quality.WrapConfigurationError(err, "template %q rule %d", doc.Template.ID, i)
		}
		specs = append(specs, spec)
	}
	ruleSet, err := rules.ParseAll(specs, reg)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", doc.Template.ID, err)
	}
	return ruleSet, nil
}

func parseCustomChecks(doc document) ([]CustomCheck, error) {
	out := make([]CustomCheck, 0, len(doc.Requirements.Custom))
	for i, c := range doc.Requirements.Custom {
		if c.Expression == "" {
			return nil, quality.NewConfigurationError(
				"template %q custom check %d has no expression", doc.Template.ID, i)
		}
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("custom_%d", i)
		}
		// Syntax-check at load time so a broken expression cannot
		// surface mid-evaluation.
		if _, err := syntax.ParseExpr(name, c.Expression, 0); err != nil { //nolint:staticcheck // SA1019: will migrate to ParseExprOptions later
			return nil, quality.WrapConfigurationError(err,
				"template %q custom check %q has invalid expression", doc.Template.ID, name)
		}
		out = append(out, CustomCheck{Name: name, Expression: c.Expression})
	}
	return out, nil
}

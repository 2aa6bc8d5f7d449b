package rules

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// Spec is the configuration form of a rule, as found in template
// documents and companion metadata.
type Spec struct {
	// ID identifies the rule. Defaults to the type name when empty.
	ID string `mapstructure:"id"`

	// Type names the check kind, built-in or registered.
	Type string `mapstructure:"type"`

	// Dimension is required for custom kinds; for built-in kinds it
	// must be empty or match the kind's dimension.
	Dimension string `mapstructure:"dimension"`

	// Weight is the maximum points the rule contributes. Must be > 0.
	Weight float64 `mapstructure:"weight"`

	// Params carries the kind-specific parameters.
	Params map[string]any `mapstructure:",remain"`
}

// Parse converts a Spec into a Rule. Unknown kinds, invalid dimensions,
// and non-positive weights are load-time configuration errors.
func Parse(spec Spec, reg *Registry) (Rule, error) {
	if spec.Type == "" {
		return Rule{}, quality.NewConfigurationError("rule has no type")
	}
	if spec.Weight <= 0 {
		return Rule{}, quality.NewConfigurationError("rule %q has non-positive weight %.2f", spec.Type, spec.Weight)
	}
	if err := reg.ValidateKind(spec.Type); err != nil {
		return Rule{}, err
	}

	id := spec.ID
	if id == "" {
		id = spec.Type
	}

	dim, builtin := builtinKinds[spec.Type]
	if builtin {
		if spec.Dimension != "" {
			declared, ok := quality.ParseDimension(spec.Dimension)
			if !ok {
				return Rule{}, quality.NewConfigurationError("rule %q declares unknown dimension %q", id, spec.Dimension)
			}
			if declared != dim {
				return Rule{}, quality.NewConfigurationError(
					"rule %q belongs to dimension %s, not %s", spec.Type, dim, declared)
			}
		}
		check, err := decodeCheck(spec.Type, spec.Params)
		if err != nil {
			return Rule{}, quality.WrapConfigurationError(err, "invalid parameters for rule %q", id)
		}
		return Rule{ID: id, Dimension: dim, Weight: spec.Weight, Check: check}, nil
	}

	// Custom kind: dimension must be declared explicitly.
	declared, ok := quality.ParseDimension(spec.Dimension)
	if !ok {
		return Rule{}, quality.NewConfigurationError(
			"custom rule %q must declare a valid dimension, got %q", id, spec.Dimension)
	}
	return Rule{
		ID:        id,
		Dimension: declared,
		Weight:    spec.Weight,
		Check:     Custom{Name: spec.Type, Params: spec.Params},
	}, nil
}

// ParseAll converts a list of specs, failing on the first invalid one.
func ParseAll(specs []Spec, reg *Registry) ([]Rule, error) {
	out := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := Parse(spec, reg)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

// decodeCheck builds the typed check for a built-in kind from its
// parameter map.
func decodeCheck(kind string, params map[string]any) (Check, error) {
	switch kind {
	case "type_consistency":
		var c TypeConsistency
		return c, decodeParams(params, &c)
	case "range_validation":
		var c RangeValidation
		return c, decodeParams(params, &c)
	case "format_consistency":
		var c FormatConsistency
		return c, decodeParams(params, &c)
	case "pattern_match":
		var c PatternMatch
		return c, decodeParams(params, &c)
	case "field_present":
		var c FieldPresent
		return c, decodeParams(params, &c)
	case "population_density":
		var c PopulationDensity
		return c, decodeParams(params, &c)
	case "recency":
		var c Recency
		return c, decodeParams(params, &c)
	case "future_timestamps":
		var c FutureTimestamps
		return c, decodeParams(params, &c)
	case "unique_values":
		var c UniqueValues
		return c, decodeParams(params, &c)
	case "accepted_values":
		var c AcceptedValues
		return c, decodeParams(params, &c)
	case "cross_field":
		var c CrossField
		return c, decodeParams(params, &c)
	case "outlier_detection":
		var c OutlierDetection
		return c, decodeParams(params, &c)
	case "non_negative":
		var c NonNegative
		return c, decodeParams(params, &c)
	default:
		return nil, fmt.Errorf("unknown built-in kind %q", kind)
	}
}

// decodeParams decodes a YAML-shaped parameter map into a check struct.
// Durations accept Go duration strings ("24h").
func decodeParams(params map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return err
	}
	return nil
}

// Package metadata loads companion metadata sidecars: machine-readable
// YAML documents that declare a dataset's quality characteristics for
// one dimension. Declared characteristics are consumed preferentially
// over automated inference.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapguard/internal/rules"
	"github.com/leapstack-labs/leapguard/pkg/quality"
	"gopkg.in/yaml.v3"
)

// SidecarSuffix is the filename suffix of companion metadata documents.
const SidecarSuffix = ".meta.yaml"

// Document is one companion metadata sidecar covering one dimension.
type Document struct {
	// Dimension names the quality axis the document declares.
	Dimension string `yaml:"dimension"`

	// DeclaredBy records who vouches for the declaration.
	DeclaredBy string `yaml:"declared_by,omitempty"`

	// Description is free-form context for readers.
	Description string `yaml:"description,omitempty"`

	// Rules holds the declared checks for the dimension, in the same
	// shape as template rule definitions.
	Rules []map[string]any `yaml:"rules"`
}

// Set maps each declared dimension to its sidecar document.
type Set map[quality.Dimension]*Document

// Explicit reports whether a dimension has a declaration.
func (s Set) Explicit(d quality.Dimension) bool {
	_, ok := s[d]
	return ok
}

// ExplicitCount returns the number of declared dimensions.
func (s Set) ExplicitCount() int { return len(s) }

// Mode selects the assessment mode for the set: validation when a
// strict majority of the five dimensions is declared, else discovery.
func (s Set) Mode() quality.AssessmentMode {
	if len(s) >= 3 {
		return quality.ModeValidation
	}
	return quality.ModeDiscovery
}

// RuleSpecs converts a document's rule maps into typed rule specs.
func (d *Document) RuleSpecs() ([]rules.Spec, error) {
	specs := make([]rules.Spec, 0, len(d.Rules))
	for i, raw := range d.Rules {
		var spec rules.Spec
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &spec,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build decoder: %w", err)
		}
		if err := dec.Decode(raw); err != nil {
			return nil, quality.WrapConfigurationError(err, "metadata rule %d", i)
		}
		if spec.Dimension == "" {
			spec.Dimension = d.Dimension
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// SidecarPath returns the sidecar path for a source path and dimension.
// For "data/orders.csv" and completeness it is
// "data/orders.completeness.meta.yaml".
func SidecarPath(sourcePath string, d quality.Dimension) string {
	base := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	return fmt.Sprintf("%s.%s%s", base, d, SidecarSuffix)
}

// Load reads all sidecar documents present next to a source path.
// Missing sidecars are not an error; a sidecar that exists but cannot
// be parsed, or whose declared dimension disagrees with its filename, is.
func Load(sourcePath string) (Set, error) {
	set := make(Set)
	for _, d := range quality.Dimensions() {
		path := SidecarPath(sourcePath, d)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read metadata %s: %w", path, err)
		}
		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, quality.WrapConfigurationError(err, "malformed metadata %s", path)
		}
		if doc.Dimension == "" {
			doc.Dimension = string(d)
		}
		declared, ok := quality.ParseDimension(doc.Dimension)
		if !ok || declared != d {
			return nil, quality.NewConfigurationError(
				"metadata %s declares dimension %q, want %s", path, doc.Dimension, d)
		}
		set[d] = &doc
	}
	return set, nil
}

// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// SetupTestProject creates a temporary project with a data file, a
// companion metadata document, and a quality template. It returns the
// project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "templates"), 0o755); err != nil {
		t.Fatalf("failed to create templates directory: %v", err)
	}

	orders := `order_id,customer_id,amount,status,created_at
1,100,25.50,shipped,2026-01-02T10:00:00Z
2,101,99.00,pending,2026-01-03T11:30:00Z
3,102,12.75,shipped,2026-01-04T09:15:00Z
4,103,41.00,delivered,2026-01-05T16:45:00Z
`
	if err := os.WriteFile(filepath.Join(tmpDir, "orders.csv"), []byte(orders), 0o600); err != nil {
		t.Fatalf("failed to create orders.csv: %v", err)
	}

	completenessMeta := `dimension: completeness
declared_by: Test Suite
rules:
  - id: order-id-present
    type: field_present
    weight: 1.0
    column: order_id
  - id: dense-population
    type: population_density
    weight: 1.0
    threshold: 0.9
`
	if err := os.WriteFile(filepath.Join(tmpDir, "orders.completeness.meta.yaml"),
		[]byte(completenessMeta), 0o600); err != nil {
		t.Fatalf("failed to create metadata document: %v", err)
	}

	tpl := `template:
  id: orders-standard
  name: Orders Standard
  version: 1.0.0
  authority: Test Suite

requirements:
  overall_minimum: 40
  dimension_requirements:
    completeness:
      minimum_score: 10
  mandatory_fields:
    - order_id
    - amount
`
	if err := os.WriteFile(filepath.Join(tmpDir, "templates", "orders-standard.yaml"),
		[]byte(tpl), 0o600); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	return tmpDir
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}

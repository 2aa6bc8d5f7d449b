package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapguard/internal/cli/output"
	"github.com/leapstack-labs/leapguard/internal/cli/testutil"
)

func runTemplatesCommand(t *testing.T, dir string, mode output.Mode, args ...string) (string, error) {
	t.Helper()

	ctx, buf := testContext(dir, mode)
	cmd := NewTemplatesCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestTemplatesListCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := runTemplatesCommand(t, dir, output.ModeMarkdown, "list")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertContains(t, out, "orders-standard")
	testutil.AssertContains(t, out, "1.0.0")
	testutil.AssertContains(t, out, "Test Suite")
}

func TestTemplatesListCommandJSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := runTemplatesCommand(t, dir, output.ModeJSON, "list")
	require.NoError(t, err)

	var items []struct {
		ID             string  `json:"id"`
		Version        string  `json:"version"`
		OverallMinimum float64 `json:"overall_minimum"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "orders-standard", items[0].ID)
	assert.Equal(t, "1.0.0", items[0].Version)
	assert.Equal(t, 40.0, items[0].OverallMinimum)
}

func TestTemplatesListCommandEmptyDir(t *testing.T) {
	dir := t.TempDir()

	_, err := runTemplatesCommand(t, dir, output.ModeMarkdown, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no templates found")
}

func TestTemplatesShowCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := runTemplatesCommand(t, dir, output.ModeMarkdown, "show", "orders-standard")
	require.NoError(t, err)

	testutil.AssertContains(t, out, "Template:  orders-standard@1.0.0")
	testutil.AssertContains(t, out, "Overall:   >= 40")
	testutil.AssertContains(t, out, "completeness")
	testutil.AssertContains(t, out, "Mandatory fields")
}

func TestTemplatesShowCommandUnknownID(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, err := runTemplatesCommand(t, dir, output.ModeMarkdown, "show", "no-such-standard")
	require.Error(t, err)
}

func TestTemplatesVerifyCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	out, err := runTemplatesCommand(t, dir, output.ModeMarkdown,
		"verify", csv, "orders-standard")
	require.NoError(t, err)
	testutil.AssertContains(t, out, "Verdict:   COMPLIANT")
}

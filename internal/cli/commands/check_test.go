package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapguard/internal/cli/output"
	"github.com/leapstack-labs/leapguard/internal/cli/testutil"
	"github.com/leapstack-labs/leapguard/pkg/quality"
)

func runCheckCommand(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	ctx, buf := testContext(dir, output.ModeMarkdown)
	cmd := NewCheckCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestNewCheckCommand(t *testing.T) {
	cmd := NewCheckCommand()

	assert.Equal(t, "check <source>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"template", "min-score", "dimension-min", "on-failure", "no-cache", "max-cache-age", "save", "no-history"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestCheckCommandPasses(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	out, err := runCheckCommand(t, dir, csv, "--min-score", "1", "--no-history")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertContains(t, out, "Check:     PASSED")
	testutil.AssertContains(t, out, "Overall:")
}

func TestCheckCommandFailsInRaiseMode(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	out, err := runCheckCommand(t, dir, csv, "--min-score", "99", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quality check failed")

	testutil.AssertContains(t, out, "Check:     FAILED")
	testutil.AssertContains(t, out, "below required 99.0")
}

func TestCheckCommandWarnModeProceeds(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	out, err := runCheckCommand(t, dir, csv,
		"--min-score", "99", "--on-failure", "warn", "--no-history")
	require.NoError(t, err)
	testutil.AssertContains(t, out, "Check:     FAILED")
}

func TestCheckCommandUnknownFailureMode(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	_, err := runCheckCommand(t, dir, csv, "--on-failure", "explode", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown failure mode")
}

func TestCheckCommandDimensionMinimum(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	// Discovery credit caps freshness well below 20.
	out, err := runCheckCommand(t, dir, csv,
		"--min-score", "1", "--dimension-min", "freshness=20", "--no-history")
	require.Error(t, err)
	testutil.AssertContains(t, out, "freshness")

	_, err = runCheckCommand(t, dir, csv,
		"--min-score", "1", "--dimension-min", "vibes=10", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dimension")

	_, err = runCheckCommand(t, dir, csv,
		"--min-score", "1", "--dimension-min", "freshness", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected name=score")
}

func TestCheckCommandTemplateByID(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	out, err := runCheckCommand(t, dir, csv,
		"--template", "orders-standard", "--no-history")
	require.NoError(t, err)
	testutil.AssertContains(t, out, "Check:     PASSED")
}

func TestCheckCommandWritesCache(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	_, err := runCheckCommand(t, dir, csv, "--min-score", "1", "--no-history")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, ".leapguard", "cache"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), ".guard.json")
}

func TestCheckCommandRecordsHistory(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	csv := filepath.Join(dir, "orders.csv")

	_, err := runCheckCommand(t, dir, csv, "--min-score", "1")
	require.NoError(t, err)

	out, err := runHistoryCommand(t, dir, "list")
	require.NoError(t, err)
	testutil.AssertContains(t, out, "orders.csv")
}

func TestParseDimensionMins(t *testing.T) {
	mins, err := parseDimensionMins([]string{"freshness=12", "completeness=15.5"})
	require.NoError(t, err)
	assert.Equal(t, map[quality.Dimension]float64{
		quality.DimensionFreshness:    12,
		quality.DimensionCompleteness: 15.5,
	}, mins)

	mins, err = parseDimensionMins(nil)
	require.NoError(t, err)
	assert.Nil(t, mins)
}

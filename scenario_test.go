package tracediff

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuiteFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSuite(t *testing.T) {
	path := writeSuiteFile(t, `
scenarios:
  - name: SimpleTransfer
    tx_hash: "0xabc"
    description: plain value transfer
  - name: HelperRevert
    tx_hash: "0xdef"
`)

	suite, err := LoadSuite(path)
	require.NoError(t, err)
	require.Len(t, suite.Scenarios, 2)
	assert.Equal(t, "SimpleTransfer", suite.Scenarios[0].Name)
	assert.Equal(t, "0xabc", suite.Scenarios[0].TxHash)
	assert.Equal(t, "plain value transfer", suite.Scenarios[0].Description)
	assert.Equal(t, "HelperRevert", suite.Scenarios[1].Name)
}

func TestLoadSuite_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty", `scenarios: []`, "has no scenarios"},
		{"missing name", "scenarios:\n  - tx_hash: \"0xabc\"", "has no name"},
		{"duplicate name", "scenarios:\n  - name: A\n  - name: A", "duplicate scenario"},
		{"invalid yaml", `scenarios: [`, "parse suite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSuite(writeSuiteFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSuite_MissingFile(t *testing.T) {
	_, err := LoadSuite(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read suite")
}

func TestDefaultSuite(t *testing.T) {
	suite := DefaultSuite()
	require.Len(t, suite.Scenarios, 17)
	assert.Equal(t, "SimpleTransfer", suite.Scenarios[0].Name)
	assert.Equal(t, "InsufficientBalance", suite.Scenarios[16].Name)

	seen := make(map[string]bool)
	for _, sc := range suite.Scenarios {
		assert.False(t, seen[sc.Name], "duplicate %s", sc.Name)
		seen[sc.Name] = true
	}
}

func TestSuiteResult_Counts(t *testing.T) {
	sr := SuiteResult{
		Results: []ScenarioResult{
			{Scenario: Scenario{Name: "A"}, Passed: true},
			{Scenario: Scenario{Name: "B"}, Passed: false},
			{Scenario: Scenario{Name: "C"}, Passed: true},
		},
	}
	assert.Equal(t, 3, sr.Total())
	assert.Equal(t, 2, sr.Passed())
	assert.Equal(t, 1, sr.Failed())
}

func TestSuiteResult_Summary(t *testing.T) {
	diverged := Result{Diffs: []Diff{{Path: "root.gasUsed", Kind: ValueMismatch}}}
	sr := SuiteResult{
		Results: []ScenarioResult{
			{Scenario: Scenario{Name: "SimpleTransfer"}, Passed: true},
			{Scenario: Scenario{Name: "HelperRevert"}, Result: &diverged},
			{Scenario: Scenario{Name: "ContractCall"}, Err: errors.New("fetch failed")},
		},
	}

	out := sr.Summary()
	assert.Contains(t, out, "SUITE SUMMARY")
	assert.Contains(t, out, "Total:  3")
	assert.Contains(t, out, "Passed: 1")
	assert.Contains(t, out, "Failed: 2")
	assert.Contains(t, out, "FAIL HelperRevert")
	assert.Contains(t, out, "differences: 1")
	assert.Contains(t, out, "FAIL ContractCall")
	assert.Contains(t, out, "error: fetch failed")
	assert.Contains(t, out, "ok   SimpleTransfer")
}

func TestSuiteResult_SummaryAllPassed(t *testing.T) {
	sr := SuiteResult{
		Results: []ScenarioResult{
			{Scenario: Scenario{Name: "A"}, Passed: true},
		},
	}
	out := sr.Summary()
	assert.NotContains(t, out, "Failed scenarios:")
	assert.Contains(t, out, "Passed scenarios:")
}

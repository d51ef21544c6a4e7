package tracediff

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned traces keyed by transaction hash.
type fakeFetcher struct {
	traces map[string]string
	err    error
}

func (f *fakeFetcher) TraceTransaction(ctx context.Context, txHash string) (Value, error) {
	if f.err != nil {
		return Value{}, f.err
	}
	src, ok := f.traces[txHash]
	if !ok {
		return Value{}, fmt.Errorf("no trace for %s", txHash)
	}
	return Parse([]byte(src))
}

func TestEngine_RunScenarioMatch(t *testing.T) {
	trace := `{"type":"CALL","gasUsed":"0x5208","calls":[]}`
	left := &fakeFetcher{traces: map[string]string{"0xabc": trace}}
	right := &fakeFetcher{traces: map[string]string{"0xabc": `{"type":"CALL","gasUsed":"0x5208"}`}}

	e, err := NewEngine(left, right)
	require.NoError(t, err)
	defer e.Close()

	res := e.RunScenario(context.Background(), Scenario{Name: "SimpleTransfer", TxHash: "0xabc"})
	assert.True(t, res.Passed)
	require.NotNil(t, res.Result)
	assert.True(t, res.Result.IsMatch)
	assert.NoError(t, res.Err)
}

func TestEngine_RunScenarioMismatch(t *testing.T) {
	left := &fakeFetcher{traces: map[string]string{"0xabc": `{"type":"CALL","gasUsed":"0x5208"}`}}
	right := &fakeFetcher{traces: map[string]string{"0xabc": `{"type":"CALL","gasUsed":"0x5209"}`}}

	e, err := NewEngine(left, right)
	require.NoError(t, err)
	defer e.Close()

	res := e.RunScenario(context.Background(), Scenario{Name: "ContractCall", TxHash: "0xabc"})
	assert.False(t, res.Passed)
	require.NotNil(t, res.Result)
	require.Len(t, res.Result.Diffs, 1)
	assert.Equal(t, "root.gasUsed", res.Result.Diffs[0].Path)
}

func TestEngine_RunScenarioNoTxHash(t *testing.T) {
	e, err := NewEngine(&fakeFetcher{}, &fakeFetcher{})
	require.NoError(t, err)
	defer e.Close()

	res := e.RunScenario(context.Background(), Scenario{Name: "Unsubmitted"})
	assert.False(t, res.Passed)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "no tx hash")
	assert.Nil(t, res.Result)
}

func TestEngine_RunScenarioFetchError(t *testing.T) {
	left := &fakeFetcher{err: errors.New("connection refused")}
	right := &fakeFetcher{traces: map[string]string{"0xabc": `{"type":"CALL"}`}}

	e, err := NewEngine(left, right, WithLabels("geth", "reth"))
	require.NoError(t, err)
	defer e.Close()

	res := e.RunScenario(context.Background(), Scenario{Name: "SimpleTransfer", TxHash: "0xabc"})
	assert.False(t, res.Passed)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "fetch geth trace")
	assert.Equal(t, res.Err.Error(), res.ErrText)
}

func TestEngine_RunScenarioCompareOptions(t *testing.T) {
	left := &fakeFetcher{traces: map[string]string{"0xabc": `{"type":"CALL","gasUsed":"0x0052"}`}}
	right := &fakeFetcher{traces: map[string]string{"0xabc": `{"type":"CALL","gasUsed":"0x52"}`}}

	e, err := NewEngine(left, right, WithCompareOptions(WithTransforms(NormalizeHex)))
	require.NoError(t, err)
	defer e.Close()

	res := e.RunScenario(context.Background(), Scenario{Name: "HexPadding", TxHash: "0xabc"})
	assert.True(t, res.Passed)
}

func TestEngine_RunScenarioTransformScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "strip_gas.risor")
	// The script removes gasUsed from the root frame on both sides.
	require.NoError(t, os.WriteFile(script, []byte(
		"delete(trace, \"gasUsed\")\ntrace\n"), 0o644))

	left := &fakeFetcher{traces: map[string]string{"0xabc": `{"type":"CALL","gasUsed":"0x1"}`}}
	right := &fakeFetcher{traces: map[string]string{"0xabc": `{"type":"CALL","gasUsed":"0x2"}`}}

	e, err := NewEngine(left, right,
		WithScriptsDir(dir),
		WithTransformScript("strip_gas.risor"))
	require.NoError(t, err)
	defer e.Close()

	res := e.RunScenario(context.Background(), Scenario{Name: "Scripted", TxHash: "0xabc"})
	assert.True(t, res.Passed, "gasUsed divergence should be stripped by the script")
}

func TestEngine_RunSuite(t *testing.T) {
	left := &fakeFetcher{traces: map[string]string{
		"0x1": `{"type":"CALL","gasUsed":"0x5208"}`,
		"0x2": `{"type":"CALL","gasUsed":"0x100"}`,
	}}
	right := &fakeFetcher{traces: map[string]string{
		"0x1": `{"type":"CALL","gasUsed":"0x5208"}`,
		"0x2": `{"type":"CALL","gasUsed":"0x200"}`,
	}}

	e, err := NewEngine(left, right, WithLabels("geth", "reth"))
	require.NoError(t, err)
	defer e.Close()

	suite := Suite{Scenarios: []Scenario{
		{Name: "SimpleTransfer", TxHash: "0x1"},
		{Name: "ContractCall", TxHash: "0x2"},
	}}
	sr, err := e.RunSuite(context.Background(), suite)
	require.NoError(t, err)

	assert.NotEmpty(t, sr.RunID)
	assert.Equal(t, "geth", sr.LeftLabel)
	assert.Equal(t, 2, sr.Total())
	assert.Equal(t, 1, sr.Passed())
	assert.Equal(t, 1, sr.Failed())
}

func TestEngine_RunSuiteCancelled(t *testing.T) {
	left := &fakeFetcher{traces: map[string]string{"0x1": `{"type":"CALL"}`}}
	right := &fakeFetcher{traces: map[string]string{"0x1": `{"type":"CALL"}`}}

	e, err := NewEngine(left, right)
	require.NoError(t, err)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	suite := Suite{Scenarios: []Scenario{
		{Name: "A", TxHash: "0x1"},
		{Name: "B", TxHash: "0x1"},
	}}
	sr, err := e.RunSuite(ctx, suite)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sr.Results, 1, "run stops after the scenario in flight")
}

func TestEngine_RunSuitePersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	left := &fakeFetcher{traces: map[string]string{
		"0x1": `{"type":"CALL","gasUsed":"0x5208"}`,
		"0x2": `{"type":"CALL","gasUsed":"0x100","error":"execution reverted"}`,
	}}
	right := &fakeFetcher{traces: map[string]string{
		"0x1": `{"type":"CALL","gasUsed":"0x5208"}`,
		"0x2": `{"type":"CALL","gasUsed":"0x200"}`,
	}}

	e, err := NewEngine(left, right,
		WithLabels("geth", "reth"),
		WithStorePath(dbPath))
	require.NoError(t, err)
	defer e.Close()
	require.NotNil(t, e.Store())

	suite := Suite{Scenarios: []Scenario{
		{Name: "SimpleTransfer", TxHash: "0x1"},
		{Name: "HelperRevert", TxHash: "0x2"},
		{Name: "Broken"},
	}}
	sr, err := e.RunSuite(context.Background(), suite)
	require.NoError(t, err)

	run, err := e.Store().RunByID(sr.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "geth", run.LeftLabel)
	assert.Equal(t, "reth", run.RightLabel)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 2, run.Failed)
	assert.NotNil(t, run.FinishedAt)

	cmps, err := e.Store().ComparisonsByRun(sr.RunID)
	require.NoError(t, err)
	require.Len(t, cmps, 3)
	assert.True(t, cmps[0].IsMatch)
	assert.False(t, cmps[1].IsMatch)
	assert.Equal(t, 2, cmps[1].DiffCount)
	assert.Contains(t, cmps[2].Error, "no tx hash")

	diffs, err := e.Store().DiffsByComparison(cmps[1].ID)
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	assert.Equal(t, "root.error", diffs[0].Path)
	assert.Equal(t, "missing_in_right", diffs[0].Kind)
	assert.Equal(t, `"execution reverted"`, diffs[0].LeftJSON)
	assert.Equal(t, "root.gasUsed", diffs[1].Path)
}

func TestEngine_NoStoreByDefault(t *testing.T) {
	e, err := NewEngine(&fakeFetcher{}, &fakeFetcher{})
	require.NoError(t, err)
	defer e.Close()
	assert.Nil(t, e.Store())
}

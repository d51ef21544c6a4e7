package tracediff

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"github.com/tracekit/tracediff/internal/runtime"
	"github.com/tracekit/tracediff/internal/store"
)

// TraceFetcher supplies one client's trace for a transaction. The engine
// never performs I/O itself; implementations own connectivity, retries, and
// timeouts. internal/rpc provides the JSON-RPC implementation.
type TraceFetcher interface {
	TraceTransaction(ctx context.Context, txHash string) (Value, error)
}

// Engine orchestrates the tracediff pipeline for scenario suites: fetch both
// clients' traces, apply configured transforms, compare, and optionally
// record outcomes to the SQLite store.
type Engine struct {
	left, right           TraceFetcher
	leftLabel, rightLabel string

	store     *store.Store
	storePath string
	runtime   *runtime.Runtime

	compareOpts     []CompareOption
	transformScript string
	scriptsDir      string
	scriptsFS       fs.FS
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLabels names the two sides in reports and stored runs. Defaults are
// "left" and "right".
func WithLabels(left, right string) EngineOption {
	return func(e *Engine) {
		e.leftLabel = left
		e.rightLabel = right
	}
}

// WithStorePath opens (and migrates) a SQLite run store at dbPath. Without
// it the engine runs without persistence.
func WithStorePath(dbPath string) EngineOption {
	return func(e *Engine) { e.storePath = dbPath }
}

// WithCompareOptions sets the comparison options applied to every scenario,
// e.g. WithNormalize(false) or WithTransforms(NormalizeHex).
func WithCompareOptions(opts ...CompareOption) EngineOption {
	return func(e *Engine) { e.compareOpts = append(e.compareOpts, opts...) }
}

// WithTransformScript applies a Risor transform script to both trees before
// comparison. The script receives the tree as the global "trace" and
// evaluates to the transformed tree.
func WithTransformScript(path string) EngineOption {
	return func(e *Engine) { e.transformScript = path }
}

// WithScriptsDir loads transform scripts from a directory on disk.
func WithScriptsDir(dir string) EngineOption {
	return func(e *Engine) { e.scriptsDir = dir }
}

// WithScriptsFS loads transform scripts from the given filesystem instead of
// from disk, enabling go:embed bundling.
func WithScriptsFS(fsys fs.FS) EngineOption {
	return func(e *Engine) { e.scriptsFS = fsys }
}

// NewEngine creates an Engine comparing traces from the two fetchers.
func NewEngine(left, right TraceFetcher, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		left:       left,
		right:      right,
		leftLabel:  "left",
		rightLabel: "right",
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.storePath != "" {
		s, err := store.NewStore(e.storePath)
		if err != nil {
			return nil, fmt.Errorf("tracediff: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("tracediff: migrate: %w", err)
		}
		e.store = s
	}

	var rtOpts []runtime.Option
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithFS(e.scriptsFS))
	}
	e.runtime = runtime.New(e.scriptsDir, rtOpts...)

	return e, nil
}

// Close releases the engine's store, if one was configured.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying run store, or nil when persistence is
// disabled.
func (e *Engine) Store() *store.Store {
	return e.store
}

// RunScenario fetches both traces for one scenario and compares them.
// Fetch and script failures are reported on the result, not returned; a
// suite run continues past individual scenario errors.
func (e *Engine) RunScenario(ctx context.Context, sc Scenario) ScenarioResult {
	start := time.Now()
	res := ScenarioResult{Scenario: sc, TxHash: sc.TxHash}

	fail := func(err error) ScenarioResult {
		res.Err = err
		res.ErrText = err.Error()
		res.Duration = time.Since(start)
		return res
	}

	if sc.TxHash == "" {
		return fail(fmt.Errorf("scenario %s: no tx hash", sc.Name))
	}

	leftTrace, err := e.left.TraceTransaction(ctx, sc.TxHash)
	if err != nil {
		return fail(fmt.Errorf("fetch %s trace: %w", e.leftLabel, err))
	}
	rightTrace, err := e.right.TraceTransaction(ctx, sc.TxHash)
	if err != nil {
		return fail(fmt.Errorf("fetch %s trace: %w", e.rightLabel, err))
	}

	leftTrace, err = e.applyScript(ctx, leftTrace)
	if err != nil {
		return fail(fmt.Errorf("transform %s trace: %w", e.leftLabel, err))
	}
	rightTrace, err = e.applyScript(ctx, rightTrace)
	if err != nil {
		return fail(fmt.Errorf("transform %s trace: %w", e.rightLabel, err))
	}

	result := Compare(leftTrace, rightTrace, e.compareOpts...)
	res.Result = &result
	res.Passed = result.IsMatch
	res.Duration = time.Since(start)
	return res
}

// RunSuite runs every scenario in order and aggregates the outcomes. When a
// store is configured, the run and all comparisons are recorded; recording
// failures abort the run since a partial history is worse than none.
func (e *Engine) RunSuite(ctx context.Context, suite Suite) (SuiteResult, error) {
	sr := SuiteResult{
		RunID:      uuid.NewString(),
		LeftLabel:  e.leftLabel,
		RightLabel: e.rightLabel,
	}

	if e.store != nil {
		err := e.store.InsertRun(&store.Run{
			ID:         sr.RunID,
			StartedAt:  time.Now(),
			LeftLabel:  e.leftLabel,
			RightLabel: e.rightLabel,
		})
		if err != nil {
			return sr, fmt.Errorf("tracediff: record run: %w", err)
		}
	}

	for _, sc := range suite.Scenarios {
		res := e.RunScenario(ctx, sc)
		sr.Results = append(sr.Results, res)

		if e.store != nil {
			if err := e.recordScenario(sr.RunID, res); err != nil {
				return sr, fmt.Errorf("tracediff: record scenario %s: %w", sc.Name, err)
			}
		}

		if ctx.Err() != nil {
			return sr, ctx.Err()
		}
	}

	if e.store != nil {
		if err := e.store.FinishRun(sr.RunID, sr.Passed(), sr.Failed()); err != nil {
			return sr, fmt.Errorf("tracediff: finish run: %w", err)
		}
	}
	return sr, nil
}

func (e *Engine) recordScenario(runID string, res ScenarioResult) error {
	cmp := &store.Comparison{
		RunID:      runID,
		Scenario:   res.Scenario.Name,
		TxHash:     res.TxHash,
		DurationMS: res.Duration.Milliseconds(),
		Error:      res.ErrText,
	}
	if res.Result != nil {
		cmp.IsMatch = res.Result.IsMatch
		cmp.DiffCount = len(res.Result.Diffs)
	}
	cmpID, err := e.store.InsertComparison(cmp)
	if err != nil {
		return err
	}
	if res.Result == nil {
		return nil
	}
	for i, d := range res.Result.Diffs {
		leftJSON, err := json.Marshal(d.Left)
		if err != nil {
			return err
		}
		rightJSON, err := json.Marshal(d.Right)
		if err != nil {
			return err
		}
		err = e.store.InsertDiff(&store.DiffRow{
			ComparisonID: cmpID,
			Ordinal:      i,
			Path:         d.Path,
			Kind:         string(d.Kind),
			LeftJSON:     string(leftJSON),
			RightJSON:    string(rightJSON),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// applyScript runs the configured transform script over a tree, converting
// through plain Go values at the script boundary.
func (e *Engine) applyScript(ctx context.Context, v Value) (Value, error) {
	if e.transformScript == "" {
		return v, nil
	}
	out, err := e.runtime.RunTransform(ctx, e.transformScript, v.ToGo())
	if err != nil {
		return Value{}, err
	}
	return FromGo(out), nil
}

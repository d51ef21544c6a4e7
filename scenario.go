package tracediff

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is one transaction whose traces are fetched from both clients and
// compared. TxHash may be empty when the scenario names a transaction the
// harness submits itself.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	TxHash      string `yaml:"tx_hash,omitempty" json:"tx_hash,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Suite is an ordered list of scenarios.
type Suite struct {
	Scenarios []Scenario `yaml:"scenarios" json:"scenarios"`
}

// defaultScenarioNames is the built-in suite covering value transfers,
// contract calls, reverts, and every precompile.
var defaultScenarioNames = []string{
	"SimpleTransfer",
	"CreateContract",
	"SimpleContractCall",
	"ContractCall",
	"NestedContractCall",
	"HelperRevert",
	"Delegatecall",
	"PrecompileBlake2F",
	"PrecompileBn128Add",
	"PrecompileBn128Mul",
	"PrecompileBn128Pairing",
	"PrecompileECRecover",
	"PrecompileIdentity",
	"PrecompileModExp",
	"PrecompileRIPEMD160",
	"PrecompileSHA256",
	"InsufficientBalance",
}

// DefaultSuite returns the built-in scenario suite.
func DefaultSuite() Suite {
	scenarios := make([]Scenario, len(defaultScenarioNames))
	for i, name := range defaultScenarioNames {
		scenarios[i] = Scenario{Name: name}
	}
	return Suite{Scenarios: scenarios}
}

// LoadSuite reads a YAML suite file. Scenario names must be non-empty and
// unique within the file.
func LoadSuite(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("tracediff: read suite: %w", err)
	}
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return Suite{}, fmt.Errorf("tracediff: parse suite %s: %w", path, err)
	}
	if len(suite.Scenarios) == 0 {
		return Suite{}, fmt.Errorf("tracediff: suite %s has no scenarios", path)
	}
	seen := make(map[string]bool, len(suite.Scenarios))
	for i, sc := range suite.Scenarios {
		if sc.Name == "" {
			return Suite{}, fmt.Errorf("tracediff: suite %s: scenario %d has no name", path, i)
		}
		if seen[sc.Name] {
			return Suite{}, fmt.Errorf("tracediff: suite %s: duplicate scenario %q", path, sc.Name)
		}
		seen[sc.Name] = true
	}
	return suite, nil
}

// ScenarioResult is the outcome of one scenario run.
type ScenarioResult struct {
	Scenario Scenario      `json:"scenario"`
	Passed   bool          `json:"passed"`
	TxHash   string        `json:"tx_hash,omitempty"`
	Result   *Result       `json:"result,omitempty"`
	Err      error         `json:"-"`
	ErrText  string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// SuiteResult aggregates scenario outcomes for one run.
type SuiteResult struct {
	RunID      string           `json:"run_id"`
	LeftLabel  string           `json:"left"`
	RightLabel string           `json:"right"`
	Results    []ScenarioResult `json:"results"`
}

// Passed counts scenarios that matched.
func (s SuiteResult) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Failed counts scenarios that diverged or errored.
func (s SuiteResult) Failed() int { return len(s.Results) - s.Passed() }

// Total is the number of scenarios run.
func (s SuiteResult) Total() int { return len(s.Results) }

// Summary renders the suite outcome: counts, then failed scenarios with
// their error or difference count, then passed scenarios.
func (s SuiteResult) Summary() string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\nSUITE SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Total:  %d\n", s.Total())
	fmt.Fprintf(&b, "Passed: %d\n", s.Passed())
	fmt.Fprintf(&b, "Failed: %d\n", s.Failed())

	if s.Failed() > 0 {
		b.WriteString("\nFailed scenarios:\n")
		for _, r := range s.Results {
			if r.Passed {
				continue
			}
			fmt.Fprintf(&b, "  FAIL %s\n", r.Scenario.Name)
			switch {
			case r.Err != nil:
				fmt.Fprintf(&b, "       error: %s\n", r.Err)
			case r.Result != nil:
				fmt.Fprintf(&b, "       differences: %d\n", len(r.Result.Diffs))
			}
		}
	}

	if s.Passed() > 0 {
		b.WriteString("\nPassed scenarios:\n")
		for _, r := range s.Results {
			if r.Passed {
				fmt.Fprintf(&b, "  ok   %s\n", r.Scenario.Name)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

package main

import (
	"github.com/tracekit/tracediff"
	"github.com/tracekit/tracediff/internal/store"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLITraceAnalysis is the single-file analyze output.
type CLITraceAnalysis struct {
	File         string              `json:"file"`
	CallCounts   map[string]int      `json:"call_counts"`
	TotalGasUsed int64               `json:"total_gas_used"`
	HasError     bool                `json:"has_error"`
	HasRevert    bool                `json:"has_revert"`
	CallTree     *tracediff.CallNode `json:"call_tree,omitempty"`
}

// CLIPairAnalysis is the two-file analyze output.
type CLIPairAnalysis struct {
	LeftFile         string                     `json:"left_file"`
	RightFile        string                     `json:"right_file"`
	Match            bool                       `json:"match"`
	TotalDifferences int                        `json:"total_differences"`
	Result           tracediff.Result           `json:"result"`
	GasDiscrepancies []tracediff.GasDiscrepancy `json:"gas_discrepancies,omitempty"`
	Errors           tracediff.ErrorComparison  `json:"errors"`
	LeftCallCounts   map[string]int             `json:"left_call_counts"`
	RightCallCounts  map[string]int             `json:"right_call_counts"`
}

// CLIRunDetail is the single-run report output.
type CLIRunDetail struct {
	Run         *store.Run                  `json:"run"`
	Comparisons []*store.Comparison         `json:"comparisons"`
	Diffs       map[string][]*store.DiffRow `json:"diffs,omitempty"`
}

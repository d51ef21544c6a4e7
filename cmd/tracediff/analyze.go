package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracediff"
)

var flagVerbose bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <trace.json> [other.json]",
	Short: "Inspect a trace file, or deep-compare two",
	Long:  "With one file: renders the call tree, call type counts, and gas totals. With two files: adds the semantic comparison, per-frame gas discrepancies, and error message analysis.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "include call trees and the detailed difference listing")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return analyzeSingle(args[0])
	}
	return analyzePair(args[0], args[1])
}

func analyzeSingle(path string) error {
	trace, err := loadTrace(path)
	if err != nil {
		return outputError("analyze", err)
	}

	_, hasError := trace.Get("error")
	_, hasRevert := trace.Get("revertReason")
	analysis := CLITraceAnalysis{
		File:         path,
		CallCounts:   tracediff.CountCalls(trace),
		TotalGasUsed: tracediff.TotalGasUsed(trace),
		HasError:     hasError,
		HasRevert:    hasRevert,
	}
	if flagVerbose || flagFormat == "json" {
		analysis.CallTree = tracediff.CallTree(trace)
	}

	if flagFormat == "json" {
		return outputResult(CLIResult{Command: "analyze", Results: analysis})
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Call counts: %v\n", analysis.CallCounts)
	fmt.Printf("Total gas used: %d\n", analysis.TotalGasUsed)
	fmt.Printf("Has error: %v\n", analysis.HasError)
	fmt.Printf("Has revert: %v\n", analysis.HasRevert)
	if flagVerbose {
		fmt.Println("\nCall tree:")
		fmt.Println(analysis.CallTree.Render())
	}
	return nil
}

func analyzePair(leftPath, rightPath string) error {
	left, err := loadTrace(leftPath)
	if err != nil {
		return outputError("analyze", err)
	}
	right, err := loadTrace(rightPath)
	if err != nil {
		return outputError("analyze", err)
	}

	result := tracediff.Compare(left, right)
	leftErr, _ := left.Get("error")
	rightErr, _ := right.Get("error")

	analysis := CLIPairAnalysis{
		LeftFile:         leftPath,
		RightFile:        rightPath,
		Match:            result.IsMatch,
		TotalDifferences: len(result.Diffs),
		Result:           result,
		GasDiscrepancies: tracediff.GasDiscrepancies(left, right),
		Errors:           tracediff.CompareErrors(leftErr.Text(), rightErr.Text()),
		LeftCallCounts:   tracediff.CountCalls(left),
		RightCallCounts:  tracediff.CountCalls(right),
	}

	if flagFormat == "json" {
		return outputResult(CLIResult{Command: "analyze", Results: analysis})
	}

	fmt.Printf("Left:  %s\n", leftPath)
	fmt.Printf("Right: %s\n", rightPath)
	fmt.Printf("\nMatch: %v\n", analysis.Match)
	fmt.Printf("Total differences: %d\n", analysis.TotalDifferences)

	fmt.Printf("\nCall counts:\n  left:  %v\n  right: %v\n",
		analysis.LeftCallCounts, analysis.RightCallCounts)

	if len(analysis.GasDiscrepancies) > 0 {
		fmt.Println("\nGas discrepancies:")
		for _, d := range analysis.GasDiscrepancies {
			fmt.Printf("  %s.%s: left=%d right=%d (diff: %+d)\n",
				d.Path, d.Field, d.Left, d.Right, d.Difference)
		}
	}

	if !analysis.Errors.Exact {
		fmt.Println("\nError messages:")
		fmt.Printf("  left:  %q (normalized: %q)\n", analysis.Errors.Left, analysis.Errors.LeftNormalized)
		fmt.Printf("  right: %q (normalized: %q)\n", analysis.Errors.Right, analysis.Errors.RightNormalized)
		fmt.Printf("  semantic match: %v\n", analysis.Errors.Semantic)
	}

	if flagVerbose {
		fmt.Println("\nLeft call tree:")
		fmt.Println(tracediff.CallTree(left).Render())
		fmt.Println("\nRight call tree:")
		fmt.Println(tracediff.CallTree(right).Render())
		if !result.IsMatch {
			fmt.Println()
			fmt.Println(result.DetailedReport())
		}
	}
	return nil
}

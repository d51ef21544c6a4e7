package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracediff"
	"github.com/tracekit/tracediff/internal/runtime"
)

var flagFormat string

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "tracediff",
	Short:         "Semantic comparison of callTracer outputs across Ethereum clients",
	Long:          "Tracediff normalizes and compares debug_traceTransaction (callTracer) outputs from two execution clients, separating genuine divergence from representational noise.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(diagnoseCmd)
}

var (
	flagNoNormalize  bool
	flagHexNormalize bool
	flagTransform    string
	flagScriptsDir   string
	flagDetail       bool
	flagUnified      bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <left.json> <right.json>",
	Short: "Compare two trace files",
	Long:  "Loads two callTracer JSON files, normalizes them, and reports every semantic difference. Exits 1 when the traces diverge.",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().BoolVar(&flagNoNormalize, "no-normalize", false, "skip call-frame normalization")
	compareCmd.Flags().BoolVar(&flagHexNormalize, "hex-normalize", false, "strip redundant leading zeros from hex values before comparing")
	compareCmd.Flags().StringVar(&flagTransform, "transform", "", "Risor transform script applied to both traces")
	compareCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "base directory for transform scripts")
	compareCmd.Flags().BoolVar(&flagDetail, "detail", false, "print the exhaustive difference listing")
	compareCmd.Flags().BoolVar(&flagUnified, "diff", false, "print a unified diff of the two trees")
}

func runCompare(cmd *cobra.Command, args []string) error {
	left, err := loadTrace(args[0])
	if err != nil {
		return outputError("compare", err)
	}
	right, err := loadTrace(args[1])
	if err != nil {
		return outputError("compare", err)
	}

	if flagTransform != "" {
		rt := runtime.New(flagScriptsDir)
		ctx := context.Background()
		if left, err = applyTransform(ctx, rt, left); err != nil {
			return outputError("compare", err)
		}
		if right, err = applyTransform(ctx, rt, right); err != nil {
			return outputError("compare", err)
		}
	}

	opts := []tracediff.CompareOption{tracediff.WithNormalize(!flagNoNormalize)}
	if flagHexNormalize {
		opts = append(opts, tracediff.WithTransforms(tracediff.NormalizeHex))
	}
	result := tracediff.Compare(left, right, opts...)

	if flagFormat == "json" {
		if err := outputResult(CLIResult{Command: "compare", Results: result}); err != nil {
			return err
		}
	} else {
		fmt.Println(result.Summary())
		if flagDetail && !result.IsMatch {
			fmt.Println()
			fmt.Println(result.DetailedReport())
		}
		if flagUnified && !result.IsMatch {
			text, err := tracediff.UnifiedDiff(result.Left, result.Right, args[0], args[1])
			if err != nil {
				return outputError("compare", err)
			}
			fmt.Println()
			fmt.Print(text)
		}
	}

	if !result.IsMatch {
		errorHandled = true
		return fmt.Errorf("traces differ: %d difference(s)", len(result.Diffs))
	}
	return nil
}

// loadTrace reads one callTracer JSON file. A top-level "result" wrapper
// (the raw RPC response shape) is unwrapped automatically.
func loadTrace(path string) (tracediff.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tracediff.Value{}, fmt.Errorf("reading %s: %w", path, err)
	}
	v, err := tracediff.Parse(data)
	if err != nil {
		return tracediff.Value{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if inner, ok := v.Get("result"); ok && inner.Kind() == tracediff.KindMapping {
		return inner, nil
	}
	return v, nil
}

func applyTransform(ctx context.Context, rt *runtime.Runtime, v tracediff.Value) (tracediff.Value, error) {
	out, err := rt.RunTransform(ctx, flagTransform, v.ToGo())
	if err != nil {
		return tracediff.Value{}, err
	}
	return tracediff.FromGo(out), nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracediff"
	"github.com/tracekit/tracediff/internal/rpc"
)

var (
	flagLeftRPC    string
	flagRightRPC   string
	flagLeftLabel  string
	flagRightLabel string
	flagScenarios  string
	flagDB         string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario suite against two RPC endpoints",
	Long:  "Fetches callTracer output for each scenario's transaction from both endpoints, compares them, and prints a suite summary. Outcomes are recorded to the SQLite run store when --db is set.",
	RunE:  runSuite,
}

func init() {
	runCmd.Flags().StringVar(&flagLeftRPC, "left-rpc", "", "left client RPC URL")
	runCmd.Flags().StringVar(&flagRightRPC, "right-rpc", "", "right client RPC URL")
	runCmd.Flags().StringVar(&flagLeftLabel, "left-label", "", "left client display name")
	runCmd.Flags().StringVar(&flagRightLabel, "right-label", "", "right client display name")
	runCmd.Flags().StringVar(&flagScenarios, "scenarios", "", "YAML scenario suite file")
	runCmd.Flags().StringVar(&flagDB, "db", "", "SQLite run store path")
	runCmd.Flags().BoolVar(&flagNoNormalize, "no-normalize", false, "skip call-frame normalization")
	runCmd.Flags().BoolVar(&flagHexNormalize, "hex-normalize", false, "strip redundant leading zeros from hex values before comparing")
	runCmd.Flags().StringVar(&flagTransform, "transform", "", "Risor transform script applied to both traces")
	runCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "base directory for transform scripts")
}

func runSuite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return outputError("run", err)
	}
	applyRunFlags(cfg)

	if cfg.Left.URL == "" || cfg.Right.URL == "" {
		return outputError("run", fmt.Errorf("both endpoints are required (--left-rpc/--right-rpc or config)"))
	}
	if cfg.Scenarios == "" {
		return outputError("run", fmt.Errorf("a scenario suite file is required (--scenarios or config)"))
	}

	suite, err := tracediff.LoadSuite(cfg.Scenarios)
	if err != nil {
		return outputError("run", err)
	}

	opts := []tracediff.EngineOption{
		tracediff.WithLabels(cfg.Left.Label, cfg.Right.Label),
		tracediff.WithCompareOptions(tracediff.WithNormalize(!flagNoNormalize)),
	}
	if flagHexNormalize {
		opts = append(opts, tracediff.WithCompareOptions(
			tracediff.WithTransforms(tracediff.NormalizeHex)))
	}
	if flagTransform != "" {
		opts = append(opts, tracediff.WithTransformScript(flagTransform))
	}
	if flagScriptsDir != "" {
		opts = append(opts, tracediff.WithScriptsDir(flagScriptsDir))
	}
	if cfg.DB != "" {
		opts = append(opts, tracediff.WithStorePath(cfg.DB))
	}

	engine, err := tracediff.NewEngine(
		rpc.NewClient(cfg.Left.URL), rpc.NewClient(cfg.Right.URL), opts...)
	if err != nil {
		return outputError("run", err)
	}
	defer engine.Close()

	start := time.Now()
	result, err := engine.RunSuite(context.Background(), suite)
	if err != nil {
		return outputError("run", err)
	}

	if flagFormat == "json" {
		if err := outputResult(CLIResult{Command: "run", Results: result}); err != nil {
			return err
		}
	} else {
		fmt.Println(result.Summary())
		fmt.Fprintf(os.Stderr, "\nRan %d scenario(s) in %s (run %s)\n",
			result.Total(), time.Since(start).Round(time.Millisecond), result.RunID)
	}

	if result.Failed() > 0 {
		errorHandled = true
		return fmt.Errorf("%d of %d scenario(s) failed", result.Failed(), result.Total())
	}
	return nil
}

// applyRunFlags overlays non-empty command flags on the loaded config.
func applyRunFlags(cfg *Config) {
	if flagLeftRPC != "" {
		cfg.Left.URL = flagLeftRPC
	}
	if flagRightRPC != "" {
		cfg.Right.URL = flagRightRPC
	}
	if flagLeftLabel != "" {
		cfg.Left.Label = flagLeftLabel
	}
	if flagRightLabel != "" {
		cfg.Right.Label = flagRightLabel
	}
	if flagScenarios != "" {
		cfg.Scenarios = flagScenarios
	}
	if flagDB != "" {
		cfg.DB = flagDB
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracediff/internal/rpc"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <rpc-url>",
	Short: "Probe an RPC endpoint",
	Long:  "Checks HTTP reachability and a set of read-only RPC methods against an endpoint, for diagnosing connectivity before a suite run.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnose,
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	client := rpc.NewClient(args[0])
	checks := client.Diagnose(context.Background())

	if flagFormat == "json" {
		if err := outputResult(CLIResult{Command: "diagnose", Results: checks}); err != nil {
			return err
		}
	} else {
		fmt.Printf("Endpoint: %s\n\n", args[0])
		formatChecksText(os.Stdout, checks)
	}

	for _, check := range checks {
		if !check.Success {
			errorHandled = true
			return fmt.Errorf("%d check(s) failed", countFailed(checks))
		}
	}
	return nil
}

func countFailed(checks []rpc.CheckResult) int {
	n := 0
	for _, c := range checks {
		if !c.Success {
			n++
		}
	}
	return n
}

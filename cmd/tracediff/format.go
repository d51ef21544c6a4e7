package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tracekit/tracediff/internal/rpc"
	"github.com/tracekit/tracediff/internal/store"
)

// formatRunsText formats runs as aligned columns, newest first.
func formatRunsText(w io.Writer, runs []*store.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tENDPOINTS\tPASSED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s vs %s\t%d\t%d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.LeftLabel, r.RightLabel, r.Passed, r.Failed)
	}
	tw.Flush()
}

// formatComparisonsText formats scenario comparisons as aligned columns.
func formatComparisonsText(w io.Writer, cmps []*store.Comparison) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tRESULT\tDIFFS\tDURATION\tTX")
	for _, c := range cmps {
		result := "ok"
		switch {
		case c.Error != "":
			result = "error"
		case !c.IsMatch:
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%dms\t%s\n",
			c.Scenario, result, c.DiffCount, c.DurationMS, c.TxHash)
	}
	tw.Flush()
}

// formatDiffRowsText formats persisted difference records as aligned columns.
func formatDiffRowsText(w io.Writer, diffs []*store.DiffRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PATH\tKIND\tLEFT\tRIGHT")
	for _, d := range diffs {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", d.Path, d.Kind, d.LeftJSON, d.RightJSON)
	}
	tw.Flush()
}

// formatChecksText formats diagnostic check results.
func formatChecksText(w io.Writer, checks []rpc.CheckResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tRESULT\tDETAIL")
	for _, c := range checks {
		result := "ok"
		detail := c.Detail
		if !c.Success {
			result = "FAIL"
			if c.Err != "" {
				detail = c.Err
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, result, detail)
	}
	tw.Flush()
}

// outputResult marshals a CLIResult to stdout as indented JSON.
func outputResult(result CLIResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as
// a CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

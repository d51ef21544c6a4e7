package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracekit/tracediff/internal/store"
)

var (
	flagReportDB    string
	flagReportLimit int
	flagShowDiffs   bool
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Browse recorded runs",
	Long:  "Without arguments, lists recent runs from the SQLite run store. With a run ID, shows that run's scenario comparisons, and their difference records with --diffs.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&flagReportDB, "db", "", "SQLite run store path")
	reportCmd.Flags().IntVar(&flagReportLimit, "limit", 20, "maximum runs to list")
	reportCmd.Flags().BoolVar(&flagShowDiffs, "diffs", false, "include difference records for failed scenarios")
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := openReportStore()
	if err != nil {
		return outputError("report", err)
	}
	defer s.Close()

	if len(args) == 0 {
		return listRuns(s)
	}
	return showRun(s, args[0])
}

func openReportStore() (*store.Store, error) {
	dbPath := flagReportDB
	if dbPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		dbPath = cfg.DB
	}
	if dbPath == "" {
		return nil, fmt.Errorf("a run store is required (--db or config)")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("run store not found: %s (run 'tracediff run --db' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

func listRuns(s *store.Store) error {
	runs, err := s.RecentRuns(flagReportLimit)
	if err != nil {
		return outputError("report", err)
	}

	if flagFormat == "json" {
		return outputResult(CLIResult{Command: "report", Results: runs})
	}
	formatRunsText(os.Stdout, runs)
	return nil
}

func showRun(s *store.Store, runID string) error {
	run, err := s.RunByID(runID)
	if err != nil {
		return outputError("report", err)
	}
	if run == nil {
		return outputError("report", fmt.Errorf("run not found: %s", runID))
	}

	cmps, err := s.ComparisonsByRun(runID)
	if err != nil {
		return outputError("report", err)
	}

	detail := CLIRunDetail{Run: run, Comparisons: cmps}
	if flagShowDiffs {
		detail.Diffs = make(map[string][]*store.DiffRow)
		for _, c := range cmps {
			if c.IsMatch {
				continue
			}
			diffs, err := s.DiffsByComparison(c.ID)
			if err != nil {
				return outputError("report", err)
			}
			detail.Diffs[c.Scenario] = diffs
		}
	}

	if flagFormat == "json" {
		return outputResult(CLIResult{Command: "report", Results: detail})
	}

	fmt.Printf("Run: %s\n", run.ID)
	fmt.Printf("Endpoints: %s vs %s\n", run.LeftLabel, run.RightLabel)
	fmt.Printf("Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Passed: %d, Failed: %d\n\n", run.Passed, run.Failed)

	formatComparisonsText(os.Stdout, cmps)

	if flagShowDiffs {
		for _, c := range cmps {
			diffs := detail.Diffs[c.Scenario]
			if len(diffs) == 0 {
				continue
			}
			fmt.Printf("\nDifferences for %s:\n", c.Scenario)
			formatDiffRowsText(os.Stdout, diffs)
		}
	}
	return nil
}

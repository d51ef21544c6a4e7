package store

import "time"

// Run is one suite execution against a pair of endpoints.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	LeftLabel  string
	RightLabel string
	Passed     int
	Failed     int
}

// Comparison is one scenario's comparison outcome within a run.
type Comparison struct {
	ID         int64
	RunID      string
	Scenario   string
	TxHash     string
	IsMatch    bool
	DiffCount  int
	DurationMS int64
	Error      string
}

// DiffRow is one persisted difference record. Left/right values are stored
// as JSON text; ordinal preserves discovery order.
type DiffRow struct {
	ID           int64
	ComparisonID int64
	Ordinal      int
	Path         string
	Kind         string
	LeftJSON     string
	RightJSON    string
}

package pipeline

import "time"

// StageReport summarizes one stage's combined first and retry passes.
type StageReport struct {
	Name      string
	Ran       bool
	Attempted int
	Succeeded int
	Failed    int
}

// Failure is a terminal per-item failure, reported with the original item
// name for traceability.
type Failure struct {
	Stage  string
	Item   string
	Reason string
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID      string
	TargetPath string
	TargetID   string
	Started    time.Time
	Finished   time.Time

	// Archives is the number of archive files discovered in the target.
	Archives int
	// NothingToDo marks a run that found no archives to process.
	NothingToDo bool

	Stages []StageReport
	// Skipped lists archives whose derived folder never appeared in the
	// refreshed listing; a skip is not a failure.
	Skipped  []string
	Failures []Failure
}

// HasFailures reports whether any stage ended with unrecovered failures.
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// Stage returns the report for the named stage, if it exists.
func (r *Report) Stage(name string) (StageReport, bool) {
	for _, stage := range r.Stages {
		if stage.Name == name {
			return stage, true
		}
	}
	return StageReport{}, false
}

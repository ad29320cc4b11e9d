// Package engine orchestrates the per-entry sync pipeline: resolve,
// checksum, conflict detection, backup, install, and lockfile
// reconciliation.
package engine

// Options is the flat configuration consumed from the CLI layer
type Options struct {
	// DryRun suppresses backup and install side effects but still runs
	// resolution and conflict detection
	DryRun bool

	// Yes pre-confirms overwrites for the whole run
	Yes bool

	// Strict treats warnings (missing skill markers) as entry failures
	Strict bool

	// Only restricts the run to the listed entry ids; empty means all
	Only []string
}

// Status classifies the outcome of one entry's processing
type Status string

const (
	// StatusInstalled means content was written to the destination
	StatusInstalled Status = "installed"

	// StatusUpToDate means the candidate digest matched the stored one
	StatusUpToDate Status = "up-to-date"

	// StatusFastPath means the remote commit and destination both matched
	// the lockfile, so no clone or install happened
	StatusFastPath Status = "up-to-date (fast path)"

	// StatusWouldInstall is the dry-run stand-in for StatusInstalled
	StatusWouldInstall Status = "would install"

	// StatusDeclined means the user refused the overwrite prompt
	StatusDeclined Status = "declined"

	// StatusFailed means the entry errored; Err carries the cause
	StatusFailed Status = "failed"
)

// Result reports one entry's outcome. One entry's failure never rolls
// back or blocks the others; the run's exit status aggregates these.
type Result struct {
	ID         string
	Status     Status
	BackupPath string

	// WouldBackup marks a dry-run entry whose install would overwrite
	// existing destination content (and therefore snapshot it first)
	WouldBackup bool

	Warnings []string
	Err      error
}

// Failed reports whether the result should make the run exit non-zero
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Summary aggregates per-entry outcomes for reporting
type Summary struct {
	Installed int
	UpToDate  int
	Declined  int
	Failed    int
	Warnings  int
}

// Summarize folds results into counts
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusInstalled, StatusWouldInstall:
			s.Installed++
		case StatusUpToDate, StatusFastPath:
			s.UpToDate++
		case StatusDeclined:
			s.Declined++
		case StatusFailed:
			s.Failed++
		}
		s.Warnings += len(r.Warnings)
	}
	return s
}

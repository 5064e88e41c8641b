package execution

// Status is the outcome of one installer step.
type Status string

const (
	// StatusAlreadySatisfied means the probe held before apply; nothing ran.
	StatusAlreadySatisfied Status = "already-satisfied"
	// StatusApplied means apply ran and the re-probe held.
	StatusApplied Status = "applied"
	// StatusFailed means apply returned an error or the re-probe did not hold.
	StatusFailed Status = "failed"
	// StatusSkipped means the step did not run (dependency failed, earlier
	// step failed, or the run was interrupted).
	StatusSkipped Status = "skipped"
	// StatusWouldApply is reported by dry runs for unsatisfied steps.
	StatusWouldApply Status = "would-apply"
	// StatusReverted means revert ran and the probe no longer holds.
	StatusReverted Status = "reverted"
	// StatusNotInstalled means uninstall found nothing to revert.
	StatusNotInstalled Status = "not-installed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Label returns the human-readable form used in summaries.
func (s Status) Label() string {
	switch s {
	case StatusAlreadySatisfied:
		return "already satisfied"
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusWouldApply:
		return "would apply"
	case StatusReverted:
		return "reverted"
	case StatusNotInstalled:
		return "not installed"
	}
	return string(s)
}

// OK reports whether the status leaves the system in the desired state.
func (s Status) OK() bool {
	switch s {
	case StatusAlreadySatisfied, StatusApplied, StatusReverted, StatusNotInstalled, StatusWouldApply:
		return true
	case StatusFailed, StatusSkipped:
		return false
	}
	return false
}

package execution

import (
	"time"
)

// Summary aggregates the results of one dispatch.
type Summary struct {
	RunID       string
	DryRun      bool
	Uninstall   bool
	Interrupted bool
	StartedAt   time.Time
	FinishedAt  time.Time
	Results     []StepResult
}

// Count returns how many steps ended with status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status() == status {
			n++
		}
	}
	return n
}

// Applied returns the number of applied steps.
func (s *Summary) Applied() int { return s.Count(StatusApplied) }

// AlreadySatisfied returns the number of steps that needed no work.
func (s *Summary) AlreadySatisfied() int { return s.Count(StatusAlreadySatisfied) }

// Failed returns the number of failed steps.
func (s *Summary) Failed() int { return s.Count(StatusFailed) }

// Skipped returns the number of skipped steps.
func (s *Summary) Skipped() int { return s.Count(StatusSkipped) }

// HasFailures reports whether any step failed or was skipped because of a failure.
func (s *Summary) HasFailures() bool {
	return s.Failed() > 0
}

// Duration returns the wall time of the dispatch.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Components returns the component keys in dispatch order.
func (s *Summary) Components() []string {
	seen := make(map[string]bool)
	keys := make([]string, 0)
	for _, r := range s.Results {
		if !seen[r.Component()] {
			seen[r.Component()] = true
			keys = append(keys, r.Component())
		}
	}
	return keys
}

// ComponentResults returns the results of one component in step order.
func (s *Summary) ComponentResults(key string) []StepResult {
	out := make([]StepResult, 0)
	for _, r := range s.Results {
		if r.Component() == key {
			out = append(out, r)
		}
	}
	return out
}

// ComponentStatus folds the step results of one component into a single
// status: the first non-OK status wins, then Applied or Reverted over
// the quieter statuses.
func (s *Summary) ComponentStatus(key string) Status {
	results := s.ComponentResults(key)
	if len(results) == 0 {
		return StatusSkipped
	}

	folded := results[0].Status()
	for _, r := range results {
		st := r.Status()
		if !st.OK() {
			return st
		}
		if st == StatusApplied || st == StatusReverted || st == StatusWouldApply {
			folded = st
		}
	}
	return folded
}

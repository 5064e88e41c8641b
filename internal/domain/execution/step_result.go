// Package execution runs installer steps, dispatches selected components
// and tracks the interactive run lifecycle.
package execution

import (
	"time"
)

// StepResult captures the outcome of one step.
type StepResult struct {
	component string
	step      string
	status    Status
	reason    string
	err       error
	attempts  int
	duration  time.Duration
}

// NewStepResult creates a StepResult.
func NewStepResult(component, step string, status Status) StepResult {
	return StepResult{
		component: component,
		step:      step,
		status:    status,
	}
}

// Component returns the key of the component the step belongs to.
func (r StepResult) Component() string {
	return r.component
}

// Step returns the step name.
func (r StepResult) Step() string {
	return r.step
}

// Status returns the final status.
func (r StepResult) Status() Status {
	return r.status
}

// Reason explains a Failed or Skipped status.
func (r StepResult) Reason() string {
	return r.reason
}

// Error returns the apply error, if any.
func (r StepResult) Error() error {
	return r.err
}

// Attempts returns how many times apply ran.
func (r StepResult) Attempts() int {
	return r.attempts
}

// Duration returns how long the step took.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Failed returns true if the step failed.
func (r StepResult) Failed() bool {
	return r.status == StatusFailed
}

// WithReason returns a copy with reason set.
func (r StepResult) WithReason(reason string) StepResult {
	r.reason = reason
	return r
}

// WithError returns a copy with err set. The reason defaults to the error text.
func (r StepResult) WithError(err error) StepResult {
	r.err = err
	if r.reason == "" && err != nil {
		r.reason = err.Error()
	}
	return r
}

// WithAttempts returns a copy with attempts set.
func (r StepResult) WithAttempts(n int) StepResult {
	r.attempts = n
	return r
}

// WithDuration returns a copy with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// WithComponent returns a copy with the component key set.
func (r StepResult) WithComponent(key string) StepResult {
	r.component = key
	return r
}

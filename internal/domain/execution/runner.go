package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// RetryPolicy bounds retries of transient apply failures.
type RetryPolicy struct {
	// Attempts is the number of retries after the first apply.
	Attempts int
	// Backoff is the wait before each retry.
	Backoff time.Duration
}

// DefaultRetryPolicy retries a transient failure once after two seconds.
var DefaultRetryPolicy = RetryPolicy{Attempts: 1, Backoff: 2 * time.Second}

// Runner executes one step: probe, apply, re-probe.
type Runner struct {
	retry     RetryPolicy
	transient func(error) bool
	sleep     func(context.Context, time.Duration) error
	now       func() time.Time
}

// NewRunner creates a Runner with the default retry policy.
func NewRunner() *Runner {
	return &Runner{
		retry:     DefaultRetryPolicy,
		transient: ports.IsTransient,
		sleep:     sleepContext,
		now:       time.Now,
	}
}

// WithRetry returns a copy of the Runner using policy.
func (r *Runner) WithRetry(policy RetryPolicy) *Runner {
	c := *r
	if policy.Attempts < 0 {
		policy.Attempts = 0
	}
	c.retry = policy
	return &c
}

// WithSleep returns a copy of the Runner waiting through sleep between retries.
func (r *Runner) WithSleep(sleep func(context.Context, time.Duration) error) *Runner {
	c := *r
	c.sleep = sleep
	return &c
}

// Retry returns the active retry policy.
func (r *Runner) Retry() RetryPolicy {
	return r.retry
}

// Run brings step to its postcondition. A step whose probe already holds
// is not applied. After apply the probe must hold, otherwise the step
// failed even if apply returned nil.
//
// Once apply has started it runs to completion even if the run context is
// cancelled; cancellation only prevents further retries. A step whose
// context is cancelled before apply starts is skipped.
func (r *Runner) Run(rc component.RunContext, step component.Step) StepResult {
	start := r.now()
	result := NewStepResult("", step.Name(), StatusAlreadySatisfied)

	if step.Probe(rc) {
		return result.WithDuration(r.now().Sub(start))
	}
	// A probe cut short by cancellation reports false; nothing has
	// started yet, so the step is skipped rather than applied.
	if rc.Context().Err() != nil {
		return NewStepResult("", step.Name(), StatusSkipped).
			WithReason(ErrInterrupted.Error()).
			WithDuration(r.now().Sub(start))
	}

	applyRC := rc.WithContext(context.WithoutCancel(rc.Context()))
	logger := rc.Logger()

	attempts := 0
	for {
		attempts++
		err := step.Apply(applyRC)
		if err == nil {
			break
		}

		retryable := r.transient(err) && attempts <= r.retry.Attempts
		if !retryable || rc.Context().Err() != nil {
			return NewStepResult("", step.Name(), StatusFailed).
				WithError(err).
				WithAttempts(attempts).
				WithDuration(r.now().Sub(start))
		}

		logger.Warn(rc.Context(), "transient failure, retrying",
			ports.F("step", step.Name()),
			ports.F("attempt", attempts),
			ports.F("backoff", r.retry.Backoff.String()),
			ports.F("error", err.Error()),
		)
		if err := r.sleep(rc.Context(), r.retry.Backoff); err != nil {
			return NewStepResult("", step.Name(), StatusFailed).
				WithError(fmt.Errorf("retry abandoned: %w", err)).
				WithAttempts(attempts).
				WithDuration(r.now().Sub(start))
		}
	}

	if !step.Probe(applyRC) {
		return NewStepResult("", step.Name(), StatusFailed).
			WithReason(fmt.Sprintf("apply completed but %s is still not satisfied", step.Name())).
			WithAttempts(attempts).
			WithDuration(r.now().Sub(start))
	}

	return NewStepResult("", step.Name(), StatusApplied).
		WithAttempts(attempts).
		WithDuration(r.now().Sub(start))
}

// Revert undoes step if its probe holds. After revert the probe must no
// longer hold.
func (r *Runner) Revert(rc component.RunContext, step component.Step) StepResult {
	start := r.now()

	revertible := component.AsRevertible(step)
	if revertible == nil {
		return NewStepResult("", step.Name(), StatusSkipped).
			WithReason("step cannot be reverted")
	}
	if !step.Probe(rc) {
		if rc.Context().Err() != nil {
			return NewStepResult("", step.Name(), StatusSkipped).
				WithReason(ErrInterrupted.Error()).
				WithDuration(r.now().Sub(start))
		}
		return NewStepResult("", step.Name(), StatusNotInstalled).
			WithDuration(r.now().Sub(start))
	}

	applyRC := rc.WithContext(context.WithoutCancel(rc.Context()))
	if err := revertible.Revert(applyRC); err != nil {
		return NewStepResult("", step.Name(), StatusFailed).
			WithError(err).
			WithAttempts(1).
			WithDuration(r.now().Sub(start))
	}
	if step.Probe(applyRC) {
		return NewStepResult("", step.Name(), StatusFailed).
			WithReason(fmt.Sprintf("revert completed but %s is still present", step.Name())).
			WithAttempts(1).
			WithDuration(r.now().Sub(start))
	}

	return NewStepResult("", step.Name(), StatusReverted).
		WithAttempts(1).
		WithDuration(r.now().Sub(start))
}

// ErrInterrupted is the reason recorded for steps skipped after cancellation.
var ErrInterrupted = errors.New("interrupted")

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

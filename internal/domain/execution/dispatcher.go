package execution

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// Dispatcher runs the steps of selected components in dependency order.
// A failing step never aborts the run: later independent components still
// run and every result is reported in the Summary.
type Dispatcher struct {
	registry *component.Registry
	runner   *Runner
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher over registry.
func NewDispatcher(registry *component.Registry, runner *Runner) *Dispatcher {
	return &Dispatcher{registry: registry, runner: runner, now: time.Now}
}

// Registry returns the component table.
func (d *Dispatcher) Registry() *component.Registry {
	return d.registry
}

// Install resolves keys with their dependencies and brings every step to
// its postcondition. Resolution errors are returned before any step runs.
// In a dry run nothing is applied; unsatisfied steps report WouldApply.
func (d *Dispatcher) Install(rc component.RunContext, keys []string) (*Summary, error) {
	specs, err := d.registry.Resolve(keys)
	if err != nil {
		return nil, err
	}

	ordered := make([]string, len(specs))
	for i, s := range specs {
		ordered[i] = s.Key
	}
	rc = rc.WithSelection(ordered)

	summary := d.newSummary(rc, false)
	failed := make(map[string]string)

	for _, spec := range specs {
		blocker := ""
		for _, dep := range spec.DependsOn {
			if _, ok := failed[dep]; ok {
				blocker = dep
				break
			}
		}

		var earlier string
		for _, step := range spec.Steps {
			var result StepResult
			switch {
			case rc.Context().Err() != nil:
				summary.Interrupted = true
				result = NewStepResult(spec.Key, step.Name(), StatusSkipped).WithReason(ErrInterrupted.Error())
			case blocker != "":
				result = NewStepResult(spec.Key, step.Name(), StatusSkipped).
					WithReason(fmt.Sprintf("dependency %s failed", blocker))
			case earlier != "":
				result = NewStepResult(spec.Key, step.Name(), StatusSkipped).
					WithReason(fmt.Sprintf("earlier step %s failed", earlier))
			case rc.DryRun():
				result = d.plan(rc, step).WithComponent(spec.Key)
			default:
				result = d.runner.Run(rc, step).WithComponent(spec.Key)
			}

			if rc.Context().Err() != nil {
				summary.Interrupted = true
			}
			if result.Failed() && earlier == "" {
				earlier = step.Name()
			}
			d.report(rc, result)
			summary.Results = append(summary.Results, result)
		}

		if blocker != "" || earlier != "" {
			failed[spec.Key] = earlier
		}
	}

	summary.FinishedAt = d.now()
	return summary, nil
}

// Uninstall reverts the named components, without their dependencies,
// in reverse canonical order. Steps within a component are reverted last
// to first.
func (d *Dispatcher) Uninstall(rc component.RunContext, keys []string) (*Summary, error) {
	specs, err := d.registry.Canonical(keys)
	if err != nil {
		return nil, err
	}

	ordered := make([]string, len(specs))
	for i, s := range specs {
		ordered[i] = s.Key
	}
	rc = rc.WithSelection(ordered)
	summary := d.newSummary(rc, true)

	for i := len(specs) - 1; i >= 0; i-- {
		spec := specs[i]
		for j := len(spec.Steps) - 1; j >= 0; j-- {
			step := spec.Steps[j]

			var result StepResult
			switch {
			case rc.Context().Err() != nil:
				summary.Interrupted = true
				result = NewStepResult(spec.Key, step.Name(), StatusSkipped).WithReason(ErrInterrupted.Error())
			case rc.DryRun():
				result = d.planRevert(rc, step).WithComponent(spec.Key)
			default:
				result = d.runner.Revert(rc, step).WithComponent(spec.Key)
			}
			if rc.Context().Err() != nil {
				summary.Interrupted = true
			}

			d.report(rc, result)
			summary.Results = append(summary.Results, result)
		}
	}

	summary.FinishedAt = d.now()
	return summary, nil
}

// ComponentState is the probed state of one component.
type ComponentState struct {
	Spec      *component.Spec
	Satisfied int
	Total     int
}

// Installed reports whether every step of the component is satisfied.
func (s ComponentState) Installed() bool {
	return s.Total > 0 && s.Satisfied == s.Total
}

// Partial reports whether only some steps are satisfied.
func (s ComponentState) Partial() bool {
	return s.Satisfied > 0 && s.Satisfied < s.Total
}

// Inspect probes every step of every component without applying anything.
func (d *Dispatcher) Inspect(rc component.RunContext) []ComponentState {
	specs := d.registry.All()
	states := make([]ComponentState, 0, len(specs))
	for _, spec := range specs {
		state := ComponentState{Spec: spec, Total: len(spec.Steps)}
		for _, step := range spec.Steps {
			if rc.Context().Err() != nil {
				break
			}
			if step.Probe(rc) {
				state.Satisfied++
			}
		}
		states = append(states, state)
	}
	return states
}

func (d *Dispatcher) plan(rc component.RunContext, step component.Step) StepResult {
	if step.Probe(rc) {
		return NewStepResult("", step.Name(), StatusAlreadySatisfied)
	}
	return NewStepResult("", step.Name(), StatusWouldApply)
}

func (d *Dispatcher) planRevert(rc component.RunContext, step component.Step) StepResult {
	if component.AsRevertible(step) == nil {
		return NewStepResult("", step.Name(), StatusSkipped).WithReason("step cannot be reverted")
	}
	if !step.Probe(rc) {
		return NewStepResult("", step.Name(), StatusNotInstalled)
	}
	return NewStepResult("", step.Name(), StatusWouldApply).WithReason("would revert")
}

func (d *Dispatcher) newSummary(rc component.RunContext, uninstall bool) *Summary {
	return &Summary{
		RunID:     rc.RunID(),
		DryRun:    rc.DryRun(),
		Uninstall: uninstall,
		StartedAt: d.now(),
		Results:   make([]StepResult, 0),
	}
}

// report writes the one-line status of a finished step.
func (d *Dispatcher) report(rc component.RunContext, result StepResult) {
	ctx := rc.Context()
	logger := rc.Logger()
	msg := fmt.Sprintf("%s: %s %s", result.Component(), result.Step(), result.Status().Label())
	fields := []ports.Field{
		ports.F("component", result.Component()),
		ports.F("step", result.Step()),
		ports.F("status", result.Status().String()),
	}
	if result.Reason() != "" {
		fields = append(fields, ports.F("reason", result.Reason()))
	}
	if result.Attempts() > 1 {
		fields = append(fields, ports.F("attempts", result.Attempts()))
	}

	switch result.Status() {
	case StatusApplied, StatusAlreadySatisfied, StatusReverted:
		logger.Success(ctx, msg, fields...)
	case StatusWouldApply, StatusNotInstalled:
		logger.Info(ctx, msg, fields...)
	case StatusSkipped:
		logger.Warn(ctx, msg, fields...)
	case StatusFailed:
		logger.Error(ctx, msg, fields...)
	}
}

package testutil

import (
	"sync"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
)

// FakeStep is a controllable installer step. Apply installs unless an
// error is queued; Probe reports the installed state.
type FakeStep struct {
	mu sync.Mutex

	name        string
	installed   bool
	applyErrs   []error
	revertErr   error
	noEffect    bool
	applyCount  int
	revertCount int
	probeCount  int
	onApply     func()
	onProbe     func()
}

// NewFakeStep creates a FakeStep that is not yet installed.
func NewFakeStep(name string) *FakeStep {
	return &FakeStep{name: name}
}

// Installed marks the step as already satisfied.
func (s *FakeStep) Installed() *FakeStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installed = true
	return s
}

// FailWith queues errors returned by successive Apply calls.
func (s *FakeStep) FailWith(errs ...error) *FakeStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyErrs = append(s.applyErrs, errs...)
	return s
}

// FailRevert makes Revert return err.
func (s *FakeStep) FailRevert(err error) *FakeStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revertErr = err
	return s
}

// NoEffect makes Apply and Revert succeed without changing the probe.
func (s *FakeStep) NoEffect() *FakeStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noEffect = true
	return s
}

// OnApply registers fn to run at the start of each Apply.
func (s *FakeStep) OnApply(fn func()) *FakeStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onApply = fn
	return s
}

// OnProbe registers fn to run at the start of each Probe.
func (s *FakeStep) OnProbe(fn func()) *FakeStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProbe = fn
	return s
}

// Name implements component.Step.
func (s *FakeStep) Name() string {
	return s.name
}

// Probe implements component.Step.
func (s *FakeStep) Probe(_ component.RunContext) bool {
	s.mu.Lock()
	fn := s.onProbe
	s.mu.Unlock()
	if fn != nil {
		fn()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeCount++
	return s.installed
}

// Apply implements component.Step.
func (s *FakeStep) Apply(_ component.RunContext) error {
	s.mu.Lock()
	hook := s.onApply
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyCount++
	if len(s.applyErrs) > 0 {
		err := s.applyErrs[0]
		s.applyErrs = s.applyErrs[1:]
		if err != nil {
			return err
		}
	}
	if !s.noEffect {
		s.installed = true
	}
	return nil
}

// Revert implements component.RevertibleStep.
func (s *FakeStep) Revert(_ component.RunContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revertCount++
	if s.revertErr != nil {
		return s.revertErr
	}
	if !s.noEffect {
		s.installed = false
	}
	return nil
}

// IsInstalled reports the current installed state.
func (s *FakeStep) IsInstalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installed
}

// ApplyCount returns how many times Apply ran.
func (s *FakeStep) ApplyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyCount
}

// RevertCount returns how many times Revert ran.
func (s *FakeStep) RevertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revertCount
}

// ProbeCount returns how many times Probe ran.
func (s *FakeStep) ProbeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probeCount
}

// PlainStep wraps a step so that it does not implement component.RevertibleStep.
type PlainStep struct {
	component.Step
}

var _ component.RevertibleStep = (*FakeStep)(nil)

package execution

import (
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"
)

// Phase is the lifecycle state of an interactive run.
type Phase string

const (
	// PhaseMenu means the selection menu is open.
	PhaseMenu Phase = "menu_open"
	// PhaseDispatching means selected components are being installed.
	PhaseDispatching Phase = "dispatching"
	// PhaseSummary means dispatch finished or was interrupted.
	PhaseSummary Phase = "summary"
	// PhaseAborted means the user quit the menu.
	PhaseAborted Phase = "aborted"
)

// Event types for the session state machine.
const (
	EventConfirm   = "CONFIRM"
	EventQuit      = "QUIT"
	EventComplete  = "COMPLETE"
	EventInterrupt = "INTERRUPT"
	EventReset     = "RESET"
)

// Session errors.
var (
	ErrEmptySelection    = errors.New("select at least one component before confirming")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// SessionContext is the statekit context type of the session machine.
type SessionContext struct {
	Selection []string
	Summary   *Summary
}

// Session drives menu_open -> dispatching -> summary, with quit to aborted.
// An empty confirm is rejected before it reaches the machine.
type Session struct {
	interp *statekit.Interpreter[SessionContext]

	mu        sync.RWMutex
	selection []string
	summary   *Summary
}

// NewSession builds and starts the session machine in the menu phase.
func NewSession() (*Session, error) {
	s := &Session{}

	machine, err := statekit.NewMachine[SessionContext]("wslkit-session").
		WithInitial(statekit.StateID(PhaseMenu)).
		WithContext(SessionContext{}).
		WithAction("recordSelection", func(_ *SessionContext, event statekit.Event) {
			if keys, ok := event.Payload.([]string); ok {
				s.mu.Lock()
				s.selection = append([]string(nil), keys...)
				s.summary = nil
				s.mu.Unlock()
			}
		}).
		WithAction("recordSummary", func(_ *SessionContext, event statekit.Event) {
			if summary, ok := event.Payload.(*Summary); ok {
				s.mu.Lock()
				s.summary = summary
				s.mu.Unlock()
			}
		}).
		State(statekit.StateID(PhaseMenu)).
		On(EventConfirm).Target(statekit.StateID(PhaseDispatching)).
		On(EventQuit).Target(statekit.StateID(PhaseAborted)).Done().
		State(statekit.StateID(PhaseDispatching)).
		OnEntry("recordSelection").
		On(EventComplete).Target(statekit.StateID(PhaseSummary)).
		On(EventInterrupt).Target(statekit.StateID(PhaseSummary)).Done().
		State(statekit.StateID(PhaseSummary)).
		OnEntry("recordSummary").
		On(EventReset).Target(statekit.StateID(PhaseMenu)).Done().
		State(statekit.StateID(PhaseAborted)).
		On(EventReset).Target(statekit.StateID(PhaseMenu)).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build session machine: %w", err)
	}

	s.interp = statekit.NewInterpreter(machine)
	s.interp.Start()
	return s, nil
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return Phase(s.interp.State().Value)
}

// Confirm moves from the menu to dispatching with keys selected.
func (s *Session) Confirm(keys []string) error {
	if len(keys) == 0 {
		return ErrEmptySelection
	}
	return s.send(PhaseMenu, statekit.Event{Type: EventConfirm, Payload: append([]string(nil), keys...)})
}

// Quit aborts from the menu.
func (s *Session) Quit() error {
	return s.send(PhaseMenu, statekit.Event{Type: EventQuit})
}

// Finish records the dispatch summary and moves to the summary phase.
func (s *Session) Finish(summary *Summary) error {
	ev := EventComplete
	if summary != nil && summary.Interrupted {
		ev = EventInterrupt
	}
	return s.send(PhaseDispatching, statekit.Event{Type: statekit.EventType(ev), Payload: summary})
}

// Reset returns to the menu from a terminal phase.
func (s *Session) Reset() error {
	switch s.Phase() {
	case PhaseSummary, PhaseAborted:
		s.interp.Send(statekit.Event{Type: EventReset})
		return nil
	case PhaseMenu, PhaseDispatching:
	}
	return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, s.Phase())
}

// Selection returns the confirmed keys.
func (s *Session) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selection...)
}

// Summary returns the recorded summary, or nil before dispatch finished.
func (s *Session) Summary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Stop halts the interpreter.
func (s *Session) Stop() {
	s.interp.Stop()
}

func (s *Session) send(from Phase, event statekit.Event) error {
	if current := s.Phase(); current != from {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event.Type, current)
	}
	s.interp.Send(event)
	return nil
}

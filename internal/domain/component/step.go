package component

// Step is one idempotent unit of installation work.
// After a successful Apply, Probe must report true, and a second
// Apply must be a no-op.
type Step interface {
	// Name identifies the step in logs and summaries.
	Name() string

	// Probe reports whether the step's postcondition already holds.
	// It must not have side effects and must not block indefinitely.
	Probe(ctx RunContext) bool

	// Apply performs the installation.
	Apply(ctx RunContext) error
}

// RevertibleStep is a Step that can undo its own Apply.
// Uninstallation is derived from the same declaration as installation.
type RevertibleStep interface {
	Step

	// Revert undoes Apply. Reverting a step whose probe is false is a no-op.
	Revert(ctx RunContext) error
}

// AsRevertible returns the step as a RevertibleStep, or nil.
func AsRevertible(step Step) RevertibleStep {
	if r, ok := step.(RevertibleStep); ok {
		return r
	}
	return nil
}

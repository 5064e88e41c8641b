package component

import (
	"context"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// RunContext is the immutable run configuration passed to every step.
type RunContext struct {
	ctx       context.Context
	dryRun    bool
	logger    ports.Logger
	runID     string
	selection []string
}

// NewRunContext creates a RunContext with the given context and logger.
func NewRunContext(ctx context.Context, logger ports.Logger) RunContext {
	return RunContext{
		ctx:    ctx,
		logger: logger,
	}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// DryRun returns whether this is a dry-run execution.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// Logger returns the run's log sink.
func (r RunContext) Logger() ports.Logger {
	return r.logger
}

// RunID returns the identifier shared by every log entry of the run.
func (r RunContext) RunID() string {
	return r.runID
}

// Selection returns a copy of the selected component keys.
func (r RunContext) Selection() []string {
	out := make([]string, len(r.selection))
	copy(out, r.selection)
	return out
}

// WithDryRun returns a new RunContext with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	r.dryRun = dryRun
	return r
}

// WithRunID returns a new RunContext with the run ID set.
func (r RunContext) WithRunID(id string) RunContext {
	r.runID = id
	return r
}

// WithSelection returns a new RunContext carrying the selection set.
func (r RunContext) WithSelection(keys []string) RunContext {
	r.selection = make([]string, len(keys))
	copy(r.selection, keys)
	return r
}

// WithContext returns a new RunContext using ctx.
func (r RunContext) WithContext(ctx context.Context) RunContext {
	r.ctx = ctx
	return r
}

package tui

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/domain/execution"
	"github.com/felixgeelhaar/wslkit/internal/tui/ui"
)

func plainReport() Report {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return NewReport(ui.NewStyles(r))
}

func TestReport_SummaryTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		summary   execution.Summary
		wantTitle string
	}{
		{"install", execution.Summary{}, "Summary"},
		{"dry run", execution.Summary{DryRun: true}, "Install plan"},
		{"uninstall", execution.Summary{Uninstall: true}, "Uninstall summary"},
		{"uninstall dry run", execution.Summary{Uninstall: true, DryRun: true}, "Uninstall plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := plainReport().Summary(&tt.summary)
			assert.Contains(t, out, tt.wantTitle)
			assert.Contains(t, out, "Nothing to do.")
			assert.NotContains(t, out, "(interrupted)")
		})
	}
}

func TestReport_Summary(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &execution.Summary{
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Results: []execution.StepResult{
			execution.NewStepResult("base", "apt install base packages", execution.StatusAlreadySatisfied),
			execution.NewStepResult("zsh", "apt install zsh", execution.StatusApplied).WithAttempts(2),
			execution.NewStepResult("zsh", "install oh-my-zsh", execution.StatusFailed).
				WithError(errors.New("curl: could not resolve host")),
			execution.NewStepResult("zsh", "set login shell", execution.StatusSkipped).
				WithReason("earlier step failed"),
			execution.NewStepResult("zsh-theme", "clone powerlevel10k", execution.StatusSkipped).
				WithReason("dependency zsh failed"),
		},
	}

	out := plainReport().Summary(s)

	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "base already satisfied")
	assert.Contains(t, out, "zsh failed")
	assert.Contains(t, out, "zsh-theme skipped")
	assert.Contains(t, out, "= apt install base packages")
	assert.Contains(t, out, "✓ apt install zsh")
	assert.Contains(t, out, "(2 attempts)")
	assert.Contains(t, out, "✗ install oh-my-zsh")
	assert.Contains(t, out, ": curl: could not resolve host")
	assert.Contains(t, out, ": dependency zsh failed")
	assert.Contains(t, out, "1 applied, 1 already satisfied, 1 failed, 2 skipped in 3s")
}

func TestReport_SummaryDryRun(t *testing.T) {
	t.Parallel()

	s := &execution.Summary{
		DryRun: true,
		Results: []execution.StepResult{
			execution.NewStepResult("python", "apt install python", execution.StatusWouldApply),
		},
	}

	out := plainReport().Summary(s)
	assert.Contains(t, out, "Install plan")
	assert.Contains(t, out, "+ apt install python")
	assert.Contains(t, out, "1 would apply")
}

func TestReport_SummaryInterrupted(t *testing.T) {
	t.Parallel()

	s := &execution.Summary{
		Interrupted: true,
		Results: []execution.StepResult{
			execution.NewStepResult("node", "install nvm", execution.StatusApplied),
			execution.NewStepResult("node", "install node 22", execution.StatusSkipped).WithReason("interrupted"),
		},
	}

	out := plainReport().Summary(s)
	assert.Contains(t, out, "Summary (interrupted)")
	assert.Contains(t, out, "↷ install node 22")
}

func TestReport_SummaryUninstall(t *testing.T) {
	t.Parallel()

	s := &execution.Summary{
		Uninstall: true,
		Results: []execution.StepResult{
			execution.NewStepResult("aws", "install aws cli", execution.StatusReverted),
			execution.NewStepResult("python", "apt install python", execution.StatusNotInstalled),
		},
	}

	out := plainReport().Summary(s)
	assert.Contains(t, out, "Uninstall summary")
	assert.Contains(t, out, "✓ install aws cli")
	assert.Contains(t, out, "- apt install python")
	assert.Contains(t, out, "1 reverted, 1 not installed")
}

func TestReport_Status(t *testing.T) {
	t.Parallel()

	states := []execution.ComponentState{
		{Spec: &component.Spec{Key: "base", Description: "Base packages"}, Satisfied: 1, Total: 1},
		{Spec: &component.Spec{Key: "zsh", Description: "Zsh"}, Satisfied: 1, Total: 3},
		{Spec: &component.Spec{Key: "mcp-servers", Description: "MCP servers"}, Satisfied: 0, Total: 2},
	}

	out := plainReport().Status(states)
	assert.Contains(t, out, "base         installed  Base packages")
	assert.Contains(t, out, "zsh          partial 1/3  Zsh")
	assert.Contains(t, out, "mcp-servers  not installed  MCP servers")
}

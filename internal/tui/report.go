package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/wslkit/internal/domain/execution"
	"github.com/felixgeelhaar/wslkit/internal/tui/ui"
)

// Report renders run summaries and component status tables.
type Report struct {
	styles ui.Styles
}

// NewReport creates a Report using styles.
func NewReport(styles ui.Styles) Report {
	return Report{styles: styles}
}

// Summary renders every step of a dispatch grouped by component, then the
// totals. Skipped and failed steps carry their reason.
func (r Report) Summary(s *execution.Summary) string {
	var b strings.Builder

	title := "Summary"
	switch {
	case s.Uninstall && s.DryRun:
		title = "Uninstall plan"
	case s.Uninstall:
		title = "Uninstall summary"
	case s.DryRun:
		title = "Install plan"
	}
	b.WriteString(r.styles.Title.UnsetMarginBottom().Render(title))
	if s.Interrupted {
		b.WriteString(" " + r.styles.Warning.Render("(interrupted)"))
	}
	b.WriteString("\n")

	if len(s.Results) == 0 {
		b.WriteString(r.styles.Help.Render("Nothing to do."))
		b.WriteString("\n")
		return b.String()
	}

	width := 0
	for _, res := range s.Results {
		width = max(width, lipgloss.Width(res.Step()))
	}

	for _, key := range s.Components() {
		b.WriteString(r.styles.Subtitle.Render(key))
		b.WriteString(" ")
		b.WriteString(r.status(s.ComponentStatus(key)).Render(s.ComponentStatus(key).Label()))
		b.WriteString("\n")
		for _, res := range s.ComponentResults(key) {
			b.WriteString("  ")
			b.WriteString(r.line(res, width))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(r.totals(s))
	b.WriteString("\n")
	return b.String()
}

// Status renders the probed state of every component.
func (r Report) Status(states []execution.ComponentState) string {
	var b strings.Builder

	width := 0
	for _, st := range states {
		width = max(width, len(st.Spec.Key))
	}

	for _, st := range states {
		var mark string
		switch {
		case st.Installed():
			mark = r.styles.Success.Render("installed")
		case st.Partial():
			mark = r.styles.Warning.Render(fmt.Sprintf("partial %d/%d", st.Satisfied, st.Total))
		default:
			mark = r.styles.Help.Render("not installed")
		}
		fmt.Fprintf(&b, "%-*s  %s  %s\n", width, st.Spec.Key, mark, r.styles.Description.Render(st.Spec.Description))
	}
	return b.String()
}

func (r Report) line(res execution.StepResult, width int) string {
	status := res.Status()
	style := r.status(status)

	pad := strings.Repeat(" ", max(0, width-lipgloss.Width(res.Step())))
	line := fmt.Sprintf("%s %s%s  %s", style.Render(symbol(status)), res.Step(), pad, style.Render(status.Label()))
	if res.Reason() != "" && (status == execution.StatusFailed || status == execution.StatusSkipped) {
		line += r.styles.Help.Render(": " + res.Reason())
	}
	if res.Attempts() > 1 {
		line += r.styles.Help.Render(fmt.Sprintf(" (%d attempts)", res.Attempts()))
	}
	return line
}

func (r Report) totals(s *execution.Summary) string {
	parts := make([]string, 0, 6)
	add := func(n int, label string, style lipgloss.Style) {
		if n > 0 {
			parts = append(parts, style.Render(fmt.Sprintf("%d %s", n, label)))
		}
	}

	add(s.Applied(), "applied", r.styles.Success)
	add(s.Count(execution.StatusReverted), "reverted", r.styles.Success)
	add(s.Count(execution.StatusWouldApply), "would apply", r.styles.Info)
	add(s.AlreadySatisfied(), "already satisfied", r.styles.Help)
	add(s.Count(execution.StatusNotInstalled), "not installed", r.styles.Help)
	add(s.Failed(), "failed", r.styles.Error)
	add(s.Skipped(), "skipped", r.styles.Warning)

	line := strings.Join(parts, ", ")
	if d := s.Duration(); d > 0 {
		line += r.styles.Help.Render(fmt.Sprintf(" in %s", d.Round(100*time.Millisecond)))
	}
	return line
}

func (r Report) status(status execution.Status) lipgloss.Style {
	switch status {
	case execution.StatusApplied, execution.StatusReverted:
		return r.styles.Success
	case execution.StatusWouldApply:
		return r.styles.Info
	case execution.StatusFailed:
		return r.styles.Error
	case execution.StatusSkipped:
		return r.styles.Warning
	case execution.StatusAlreadySatisfied, execution.StatusNotInstalled:
	}
	return r.styles.Help
}

func symbol(status execution.Status) string {
	switch status {
	case execution.StatusApplied, execution.StatusReverted:
		return "✓"
	case execution.StatusAlreadySatisfied:
		return "="
	case execution.StatusWouldApply:
		return "+"
	case execution.StatusFailed:
		return "✗"
	case execution.StatusSkipped:
		return "↷"
	case execution.StatusNotInstalled:
	}
	return "-"
}

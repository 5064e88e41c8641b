package aws

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/felixgeelhaar/wslkit/internal/tui/ui"
)

// Prompt renders the AWS segment of a shell prompt.
type Prompt struct {
	renderer *lipgloss.Renderer
}

// NewPrompt creates a Prompt writing for w. The segment is printed from
// a command substitution, so color detection on w would always fail;
// force selects ANSI colors instead.
func NewPrompt(w io.Writer, force bool) *Prompt {
	r := lipgloss.NewRenderer(w)
	if force {
		r.SetColorProfile(termenv.ANSI256)
		r.SetHasDarkBackground(true)
	}
	return &Prompt{renderer: r}
}

// NewPlainPrompt creates a Prompt that never emits escape sequences.
func NewPlainPrompt() *Prompt {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return &Prompt{renderer: r}
}

// Segment returns "aws:<profile>" styled for role. Prod profiles are
// bold. An empty profile renders nothing.
func (p *Prompt) Segment(profile string, role Role) string {
	if profile == "" {
		return ""
	}
	style := p.renderer.NewStyle().Foreground(roleColor(role))
	if role == RoleProd {
		style = style.Bold(true)
	}
	return style.Render("aws:" + profile)
}

func roleColor(role Role) lipgloss.AdaptiveColor {
	switch role {
	case RoleProd:
		return ui.ColorError
	case RoleStaging:
		return ui.ColorWarning
	case RoleDev:
		return ui.ColorSuccess
	case RoleUnknown:
	}
	return ui.ColorMuted
}

// ZshSegment returns the segment written with zsh prompt escapes rather
// than raw ANSI sequences, so zsh can measure its width. A "%" in the
// profile name is doubled to print literally.
func ZshSegment(profile string, role Role) string {
	if profile == "" {
		return ""
	}
	seg := fmt.Sprintf("%%F{%d}aws:%s%%f", zshColor(role), strings.ReplaceAll(profile, "%", "%%"))
	if role == RoleProd {
		seg = "%B" + seg + "%b"
	}
	return seg
}

// zshColor maps a role to the nearest 256-color palette entry of the
// dark theme colors used by Segment.
func zshColor(role Role) int {
	switch role {
	case RoleProd:
		return 211
	case RoleStaging:
		return 223
	case RoleDev:
		return 151
	case RoleUnknown:
	}
	return 243
}

// Package tui provides the interactive component menu and the rendered
// run summary.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/domain/execution"
)

// MenuItem is one selectable component.
type MenuItem struct {
	Key         string
	Description string
	Group       string
	Installed   bool
	Partial     bool
	Selected    bool
}

// MenuOptions configures the selection menu.
type MenuOptions struct {
	Title string
	Items []MenuItem
}

// MenuResult is the outcome of the menu.
type MenuResult struct {
	// Selection holds the chosen keys in menu order. Empty when Quit is set.
	Selection []string
	Quit      bool
}

// ItemsFromStates builds menu items from probed component states.
func ItemsFromStates(states []execution.ComponentState) []MenuItem {
	items := make([]MenuItem, 0, len(states))
	for _, st := range states {
		items = append(items, MenuItem{
			Key:         st.Spec.Key,
			Description: st.Spec.Description,
			Group:       st.Spec.Group,
			Installed:   st.Installed(),
			Partial:     st.Partial(),
		})
	}
	return items
}

// ItemsFromSpecs builds menu items without probe state.
func ItemsFromSpecs(specs []*component.Spec) []MenuItem {
	items := make([]MenuItem, 0, len(specs))
	for _, s := range specs {
		items = append(items, MenuItem{Key: s.Key, Description: s.Description, Group: s.Group})
	}
	return items
}

// RunMenu runs the selection menu until the user confirms a non-empty
// selection or quits.
func RunMenu(ctx context.Context, opts MenuOptions) (*MenuResult, error) {
	model := newMenuModel(opts)

	p := tea.NewProgram(model, tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("menu failed: %w", err)
	}

	m, ok := finalModel.(menuModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	if m.quit || !m.confirmed {
		return &MenuResult{Quit: true}, nil
	}
	return &MenuResult{Selection: m.Selection()}, nil
}

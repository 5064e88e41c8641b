package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/wslkit/internal/domain/execution"
	"github.com/felixgeelhaar/wslkit/internal/tui/ui"
)

// menuModel is the Bubble Tea model of the component selection menu.
type menuModel struct {
	title   string
	items   []MenuItem
	cursor  int
	pending string
	hint    string
	styles  ui.Styles
	keys    ui.KeyMap
	help    help.Model
	heading cases.Caser
	width   int
	height  int

	confirmed bool
	quit      bool
}

func newMenuModel(opts MenuOptions) menuModel {
	items := make([]MenuItem, len(opts.Items))
	copy(items, opts.Items)

	title := opts.Title
	if title == "" {
		title = "wslkit"
	}

	return menuModel{
		title:   title,
		items:   items,
		styles:  ui.DefaultStyles(),
		keys:    ui.DefaultKeyMap(),
		help:    help.New(),
		heading: cases.Upper(language.English),
		width:   80,
		height:  24,
	}
}

// Cursor returns the current cursor position (for testing).
func (m menuModel) Cursor() int {
	return m.cursor
}

// Selection returns the selected keys in menu order.
func (m menuModel) Selection() []string {
	keys := make([]string, 0, len(m.items))
	for _, item := range m.items {
		if item.Selected {
			keys = append(keys, item.Key)
		}
	}
	return keys
}

// Init initializes the model.
func (m menuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.styles = m.styles.WithWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m menuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Number) {
		m.hint = ""
		return m.typeDigit(msg.String()), nil
	}

	// A pending number is committed by space or enter and dropped by
	// anything else.
	pending := m.pending
	m.pending = ""
	if pending != "" && (key.Matches(msg, m.keys.Toggle) || msg.Type == tea.KeyEnter) {
		n, _ := strconv.Atoi(pending)
		return m.toggleNumber(n), nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quit = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Install):
		if len(m.Selection()) == 0 {
			m.hint = execution.ErrEmptySelection.Error()
			return m, nil
		}
		m.confirmed = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		m.hint = ""
		if len(m.items) > 0 {
			m.items[m.cursor].Selected = !m.items[m.cursor].Selected
		}

	case key.Matches(msg, m.keys.SelectAll):
		m.hint = ""
		m.setAll(true)

	case key.Matches(msg, m.keys.SelectNone):
		m.hint = ""
		m.setAll(false)

	case m.keys.IsUp(msg):
		if m.cursor > 0 {
			m.cursor--
		}

	case m.keys.IsDown(msg):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// typeDigit extends the pending number. The number is toggled as soon as
// no longer number could match an item.
func (m menuModel) typeDigit(digit string) menuModel {
	buf := m.pending + digit
	n, err := strconv.Atoi(buf)
	if err != nil || n == 0 {
		m.pending = ""
		m.hint = fmt.Sprintf("no item %s", buf)
		return m
	}
	if n > len(m.items) {
		m.pending = ""
		m.hint = fmt.Sprintf("no item %d, choose 1-%d", n, len(m.items))
		return m
	}
	if n*10 > len(m.items) {
		m.pending = ""
		return m.toggleNumber(n)
	}
	m.pending = buf
	return m
}

// toggleNumber flips the item shown as n and moves the cursor to it.
func (m menuModel) toggleNumber(n int) menuModel {
	if n < 1 || n > len(m.items) {
		return m
	}
	m.items[n-1].Selected = !m.items[n-1].Selected
	m.cursor = n - 1
	m.hint = ""
	return m
}

func (m *menuModel) setAll(selected bool) {
	for i := range m.items {
		m.items[i].Selected = selected
	}
}

// View renders the model.
func (m menuModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(m.styles.Help.Render("No components available"))
		b.WriteString("\n")
		return b.String()
	}

	group := ""
	for i, item := range m.items {
		if item.Group != group {
			group = item.Group
			b.WriteString(m.styles.Group.Render(m.heading.String(group)))
			b.WriteString("\n")
		}
		b.WriteString(m.renderItem(i, item))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.hint != "":
		b.WriteString(m.styles.Warning.Render(m.hint))
	case m.pending != "":
		b.WriteString(m.styles.Info.Render(fmt.Sprintf("toggle #%s_ (space to confirm)", m.pending)))
	default:
		b.WriteString(m.styles.Help.Render(fmt.Sprintf("%d of %d selected", len(m.Selection()), len(m.items))))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m menuModel) renderItem(i int, item MenuItem) string {
	cursor := "  "
	style := m.styles.ListItem
	if i == m.cursor {
		cursor = "▸ "
		style = m.styles.ListItemActive
	}

	check := "[ ]"
	if item.Selected {
		check = m.styles.Checked.Render("[x]")
	}

	line := fmt.Sprintf("%s%2d. %s %s", cursor, i+1, check, style.Render(fmt.Sprintf("%-14s", item.Key)))
	if item.Description != "" {
		line += " " + m.styles.Description.Render(item.Description)
	}
	switch {
	case item.Installed:
		line += " " + m.styles.Success.Render("(installed)")
	case item.Partial:
		line += " " + m.styles.Warning.Render("(partial)")
	}
	return line
}
